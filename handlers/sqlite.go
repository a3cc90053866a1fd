package handlers

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/builders"
)

const defaultTableName = "data"

var _ core.Handler = (*SQLiteHandler)(nil)

// SQLiteHandler reads and writes SQLite database files. A database's
// tables are treated like workbook sheets: reading merges them into a
// single batch tagged with the table of origin.
type SQLiteHandler struct{}

func NewSQLite() *SQLiteHandler {
	return &SQLiteHandler{}
}

func (h *SQLiteHandler) Extension() string {
	return "db"
}

func (h *SQLiteHandler) Streamable() bool {
	return true
}

func (h *SQLiteHandler) SampleRows() int {
	return 100
}

// Read opens the database and returns its user tables as one batch.
// The table option narrows the read to a single table.
func (h *SQLiteHandler) Read(path string, opts core.Options) (core.BatchStream, error) {
	opts = opts.Filter(core.OptTable)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	defer db.Close()

	tables, err := listTables(db)
	if err != nil {
		return nil, err
	}
	if table := opts.String(core.OptTable, ""); table != "" {
		if !containsSheet(tables, table) {
			return nil, fmt.Errorf("handlers.SQLiteHandler: table %q not found", table)
		}
		tables = []string{table}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w: %s", core.ErrNoTabularData, path)
	}

	sheets := make([]sheet, 0, len(tables))
	for _, table := range tables {
		batch, err := readTable(db, table)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet{name: table, batch: batch})
	}

	return builders.FromBatches(mergeSheets(sheets)), nil
}

// Write stores the batch in a single table, creating it on the first
// batch of a run and appending on subsequent ones.
func (h *SQLiteHandler) Write(batch *core.Batch, path string, opts core.Options) error {
	opts = opts.Filter(core.OptTable, core.OptAppend)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	defer db.Close()

	table := opts.String(core.OptTable, defaultTableName)

	if !opts.Bool(core.OptAppend, false) {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
			return fmt.Errorf("handlers.SQLiteHandler: %w", err)
		}
	}
	if err := createTable(db, table, batch.Header); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertStatement(table, len(batch.Header)))
	if err != nil {
		return fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(batch.Header))
	for _, row := range batch.Rows {
		for i := range args {
			if i < len(row) {
				args[i] = row[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("handlers.SQLiteHandler: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	return nil
}

func listTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	return tables, nil
}

func readTable(db *sql.DB, table string) (*core.Batch, error) {
	rows, err := db.Query("SELECT * FROM " + quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}

	batch := core.NewBatch(append(core.Header{}, columns...), nil)
	for rows.Next() {
		row := make(core.Row, len(columns))
		dest := make([]any, len(columns))
		for i := range dest {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
		}
		for i, v := range row {
			// the driver hands back []byte for text columns
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}
		batch.Rows = append(batch.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	return batch, nil
}

func createTable(db *sql.DB, table string, header core.Header) error {
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = quoteIdent(col)
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(table), strings.Join(columns, ", "))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("handlers.SQLiteHandler: %w", err)
	}
	return nil
}

func insertStatement(table string, columnCount int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", columnCount), ", ")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
