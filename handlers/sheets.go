package handlers

import "github.com/tabmerge/tabmerge/core"

// sheetNameColumn tags rows with their originating sheet or table when
// a multi-sheet source is merged into a single batch.
const sheetNameColumn = "sheet_name"

type sheet struct {
	name  string
	batch *core.Batch
}

// mergeSheets unions pseudo-sheets into one batch. Column names are
// normalized with the default rules first so the same logical column
// lines up across sheets; every row is tagged with its sheet of
// origin, a single resolved sheet included.
func mergeSheets(sheets []sheet) *core.Batch {
	batches := make([]*core.Batch, 0, len(sheets))
	for _, s := range sheets {
		core.NormalizeBatch(s.batch, nil, true, true)
		s.batch.AddConstColumn(sheetNameColumn, s.name)
		batches = append(batches, s.batch)
	}
	return core.Concat(batches)
}
