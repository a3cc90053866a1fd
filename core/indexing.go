package core

import "fmt"

// tempIndexColumn carries row numbers between batch processing and
// output finalization.
const tempIndexColumn = "__index__"

// IndexColumn is the finalized synthetic row identifier in the output.
const IndexColumn = "index"

// IndexManager assigns synthetic row numbers across the batches of one
// run. Constructed fresh per run and discarded afterwards.
type IndexManager struct {
	mode       IndexMode
	startValue int

	globalPosition int
	filePosition   int
	filesSeen      int
}

func NewIndexManager(mode IndexMode, startValue int) *IndexManager {
	return &IndexManager{
		mode:           mode,
		startValue:     startValue,
		globalPosition: startValue,
		filePosition:   startValue,
	}
}

// ProcessBatch assigns consecutive row numbers to the batch and stores
// them in a temporary column. Under LOCAL the counter restarts at the
// start value for every new file; under SEQUENTIAL it never resets.
func (im *IndexManager) ProcessBatch(b *Batch, isNewFile bool) *Batch {
	if im.mode == IndexModeUnset || im.mode == IndexModeNone {
		return b
	}

	if isNewFile {
		im.filesSeen++
		if im.mode == IndexModeLocal {
			im.filePosition = im.startValue
		}
	}

	var start int
	switch im.mode {
	case IndexModeLocal:
		start = im.filePosition
		im.filePosition += b.Len()
	case IndexModeSequential:
		start = im.globalPosition
		im.globalPosition += b.Len()
	}

	values := make([]any, b.Len())
	for i := range values {
		values[i] = start + i
	}
	b.InsertColumn(len(b.Header), tempIndexColumn, values)
	return b
}

// FinalizeBatch converts the temporary column of a streamed batch into
// the real row identifier, moved to the front.
func (im *IndexManager) FinalizeBatch(b *Batch) (*Batch, error) {
	return im.finalize(b, "batch")
}

// FinalizeTable does the same for the complete in-memory table.
func (im *IndexManager) FinalizeTable(t *Table) (*Table, error) {
	return im.finalize(t, "table")
}

func (im *IndexManager) finalize(b *Batch, kind string) (*Batch, error) {
	if im.mode == IndexModeUnset || im.mode == IndexModeNone {
		return b, nil
	}

	idx := b.ColumnIndex(tempIndexColumn)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s was not processed by the index manager", ErrMissingIndexColumn, kind)
	}

	values := b.Column(tempIndexColumn)
	b.DropColumn(tempIndexColumn)
	b.InsertColumn(0, IndexColumn, values)
	return b, nil
}

// ApplyWriteOptions reconciles the index-visibility write option with
// the configured mode. The mode always wins over a raw caller option;
// only an unset mode preserves the caller's value.
func (im *IndexManager) ApplyWriteOptions(opts Options) Options {
	updated := Options{}.Merge(opts)
	if im.mode != IndexModeUnset {
		updated[OptIndex] = im.mode != IndexModeNone
	}
	return updated
}

// IncludeIndex reports whether output should carry the index column.
func (im *IndexManager) IncludeIndex() bool {
	return im.mode != IndexModeUnset && im.mode != IndexModeNone
}

// FilesSeen returns how many files contributed batches so far.
func (im *IndexManager) FilesSeen() int {
	return im.filesSeen
}
