package core

// Batch is a rectangular chunk of rows sharing one column set.
// It is the streaming unit of the pipeline.
type Batch struct {
	Header Header
	Rows   []Row
}

// Table is the fully materialized union of all batches of a run.
type Table = Batch

func NewBatch(header Header, rows []Row) *Batch {
	return &Batch{Header: header, Rows: rows}
}

func (b *Batch) Len() int {
	return len(b.Rows)
}

func (b *Batch) IsEmpty() bool {
	return b == nil || len(b.Rows) == 0
}

// ColumnIndex returns the position of the named column or -1.
func (b *Batch) ColumnIndex(name string) int {
	for i, col := range b.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column, or nil if absent.
func (b *Batch) Column(name string) []any {
	idx := b.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]any, len(b.Rows))
	for i, row := range b.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}

// AddConstColumn appends a column holding the same value in every row.
// An existing column of that name is overwritten in place.
func (b *Batch) AddConstColumn(name string, value any) {
	if idx := b.ColumnIndex(name); idx >= 0 {
		for i := range b.Rows {
			b.Rows[i][idx] = value
		}
		return
	}
	b.Header = append(b.Header, name)
	for i := range b.Rows {
		b.Rows[i] = append(b.Rows[i], value)
	}
}

// InsertColumn places a new column at the given position. Values shorter
// than the batch are padded with nil.
func (b *Batch) InsertColumn(pos int, name string, values []any) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.Header) {
		pos = len(b.Header)
	}

	b.Header = append(b.Header, "")
	copy(b.Header[pos+1:], b.Header[pos:])
	b.Header[pos] = name

	for i := range b.Rows {
		var v any
		if i < len(values) {
			v = values[i]
		}
		row := append(b.Rows[i], nil)
		copy(row[pos+1:], row[pos:])
		row[pos] = v
		b.Rows[i] = row
	}
}

// DropColumn removes the named column if present.
func (b *Batch) DropColumn(name string) {
	idx := b.ColumnIndex(name)
	if idx < 0 {
		return
	}
	b.Header = append(b.Header[:idx], b.Header[idx+1:]...)
	for i, row := range b.Rows {
		if idx < len(row) {
			b.Rows[i] = append(row[:idx], row[idx+1:]...)
		}
	}
}

// RenameColumn changes a column name in place.
func (b *Batch) RenameColumn(from, to string) {
	if idx := b.ColumnIndex(from); idx >= 0 {
		b.Header[idx] = to
	}
}

// Reindex returns a batch conforming to the target column order.
// Columns absent from the target are dropped; target columns absent
// from the batch are added with nil values.
func (b *Batch) Reindex(columns []string) *Batch {
	out := &Batch{
		Header: append(Header{}, columns...),
		Rows:   make([]Row, len(b.Rows)),
	}

	src := make([]int, len(columns))
	for i, col := range columns {
		src[i] = b.ColumnIndex(col)
	}

	for i, row := range b.Rows {
		newRow := make(Row, len(columns))
		for j, idx := range src {
			if idx >= 0 && idx < len(row) {
				newRow[j] = row[idx]
			}
		}
		out.Rows[i] = newRow
	}
	return out
}

// Concat merges batches into one table, unioning columns in encounter
// order and filling values missing from a batch with nil.
func Concat(batches []*Batch) *Table {
	table := &Table{}
	for _, b := range batches {
		if b == nil {
			continue
		}
		for _, col := range b.Header {
			if table.ColumnIndex(col) < 0 {
				table.Header = append(table.Header, col)
			}
		}
	}

	for _, b := range batches {
		if b == nil {
			continue
		}
		src := make([]int, len(table.Header))
		for i, col := range table.Header {
			src[i] = b.ColumnIndex(col)
		}
		for _, row := range b.Rows {
			newRow := make(Row, len(table.Header))
			for j, idx := range src {
				if idx >= 0 && idx < len(row) {
					newRow[j] = row[idx]
				}
			}
			table.Rows = append(table.Rows, newRow)
		}
	}
	return table
}
