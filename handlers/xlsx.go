package handlers

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/builders"
)

const defaultSheetName = "Sheet1"

var _ core.Handler = (*XLSXHandler)(nil)

// XLSXHandler reads and writes Excel workbooks. Reading merges the
// selected sheets into a single batch, tagging rows with their sheet of
// origin when more than one sheet contributes.
type XLSXHandler struct{}

func NewXLSX() *XLSXHandler {
	return &XLSXHandler{}
}

func (h *XLSXHandler) Extension() string {
	return "xlsx"
}

func (h *XLSXHandler) Streamable() bool {
	return false
}

func (h *XLSXHandler) SampleRows() int {
	return 5
}

// Read opens the workbook and returns its sheets as one batch. The
// sheet option narrows the selection: a string picks a sheet by name,
// an int by position, a list of strings a subset. Unset or the literal
// "all" means every sheet.
func (h *XLSXHandler) Read(path string, opts core.Options) (core.BatchStream, error) {
	opts = opts.Filter(core.OptSheet)

	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("handlers.XLSXHandler: %w", err)
	}
	defer file.Close()

	names, err := selectSheets(file.GetSheetList(), opts[core.OptSheet])
	if err != nil {
		return nil, err
	}

	sheets := make([]sheet, 0, len(names))
	for _, name := range names {
		rows, err := file.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("handlers.XLSXHandler: %w", err)
		}
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, sheet{name: name, batch: sheetBatch(rows)})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("handlers.XLSXHandler: %w: %s", core.ErrNoTabularData, path)
	}

	return builders.FromBatches(mergeSheets(sheets)), nil
}

// Write saves the batch as a single-sheet workbook.
func (h *XLSXHandler) Write(batch *core.Batch, path string, opts core.Options) error {
	opts = opts.Filter(core.OptSheet, core.OptHeader)

	file := excelize.NewFile()
	defer file.Close()

	sheetName := opts.String(core.OptSheet, defaultSheetName)
	if sheetName != defaultSheetName {
		if err := file.SetSheetName(defaultSheetName, sheetName); err != nil {
			return fmt.Errorf("handlers.XLSXHandler: %w", err)
		}
	}

	rowNum := 1
	if opts.Bool(core.OptHeader, true) {
		header := make([]any, len(batch.Header))
		for i, col := range batch.Header {
			header[i] = col
		}
		if err := setRow(file, sheetName, rowNum, header); err != nil {
			return err
		}
		rowNum++
	}

	for _, row := range batch.Rows {
		if err := setRow(file, sheetName, rowNum, row); err != nil {
			return err
		}
		rowNum++
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("handlers.XLSXHandler: %w", err)
	}
	return nil
}

func setRow(file *excelize.File, sheetName string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("handlers.XLSXHandler: %w", err)
	}
	if err := file.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("handlers.XLSXHandler: %w", err)
	}
	return nil
}

// sheetBatch converts raw sheet rows into a batch, taking the first row
// as the header and padding short rows with nil.
func sheetBatch(raw [][]string) *core.Batch {
	header := append(core.Header{}, raw[0]...)
	rows := make([]core.Row, 0, len(raw)-1)
	for _, rec := range raw[1:] {
		row := make(core.Row, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return core.NewBatch(header, rows)
}

// selectSheets resolves the sheet option against the workbook's sheet
// list.
func selectSheets(available []string, selector any) ([]string, error) {
	switch sel := selector.(type) {
	case nil:
		return available, nil
	case string:
		if sel == "all" {
			return available, nil
		}
		if !containsSheet(available, sel) {
			return nil, fmt.Errorf("handlers.XLSXHandler: sheet %q not found", sel)
		}
		return []string{sel}, nil
	case int:
		if sel < 0 || sel >= len(available) {
			return nil, fmt.Errorf("handlers.XLSXHandler: sheet index %d out of range", sel)
		}
		return []string{available[sel]}, nil
	case []string:
		return selectNamedSheets(available, sel)
	case []any:
		names := make([]string, 0, len(sel))
		for _, v := range sel {
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("handlers.XLSXHandler: invalid sheet selector %v", v)
			}
			names = append(names, name)
		}
		return selectNamedSheets(available, names)
	default:
		return nil, fmt.Errorf("handlers.XLSXHandler: invalid sheet selector %v", selector)
	}
}

func selectNamedSheets(available, requested []string) ([]string, error) {
	for _, name := range requested {
		if !containsSheet(available, name) {
			return nil, fmt.Errorf("handlers.XLSXHandler: sheet %q not found", name)
		}
	}
	return requested, nil
}

func containsSheet(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
