package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func batchOfSize(n int) *Batch {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{i}
	}
	return NewBatch(Header{"value"}, rows)
}

func indexValues(t *testing.T, im *IndexManager, b *Batch) []any {
	t.Helper()
	finalized, err := im.FinalizeBatch(b)
	require.NoError(t, err)
	return finalized.Column(IndexColumn)
}

func TestIndexManagerLocalRestartsPerFile(t *testing.T) {
	r := require.New(t)

	im := NewIndexManager(IndexModeLocal, 0)

	first := im.ProcessBatch(batchOfSize(2), true)
	second := im.ProcessBatch(batchOfSize(3), false)
	r.Equal([]any{0, 1}, indexValues(t, im, first))
	r.Equal([]any{2, 3, 4}, indexValues(t, im, second))

	// a new file restarts the counter
	third := im.ProcessBatch(batchOfSize(2), true)
	r.Equal([]any{0, 1}, indexValues(t, im, third))
	r.Equal(2, im.FilesSeen())
}

func TestIndexManagerSequentialNeverResets(t *testing.T) {
	r := require.New(t)

	im := NewIndexManager(IndexModeSequential, 100)

	first := im.ProcessBatch(batchOfSize(2), true)
	second := im.ProcessBatch(batchOfSize(3), true)
	r.Equal([]any{100, 101}, indexValues(t, im, first))
	r.Equal([]any{102, 103, 104}, indexValues(t, im, second))
}

func TestIndexManagerNoneLeavesBatchAlone(t *testing.T) {
	r := require.New(t)

	for _, mode := range []IndexMode{IndexModeUnset, IndexModeNone} {
		im := NewIndexManager(mode, 0)

		b := im.ProcessBatch(batchOfSize(2), true)
		r.Equal(Header{"value"}, b.Header)

		finalized, err := im.FinalizeBatch(b)
		r.NoError(err)
		r.Equal(Header{"value"}, finalized.Header)
		r.False(im.IncludeIndex())
	}
}

func TestIndexManagerFinalizeMovesIndexToFront(t *testing.T) {
	r := require.New(t)

	im := NewIndexManager(IndexModeSequential, 0)
	b := im.ProcessBatch(NewBatch(Header{"a", "b"}, []Row{{1, 2}}), true)

	finalized, err := im.FinalizeBatch(b)
	r.NoError(err)
	r.Equal(Header{IndexColumn, "a", "b"}, finalized.Header)
	r.Equal(Row{0, 1, 2}, finalized.Rows[0])
}

func TestIndexManagerFinalizeWithoutProcessing(t *testing.T) {
	r := require.New(t)

	im := NewIndexManager(IndexModeLocal, 0)

	_, err := im.FinalizeTable(batchOfSize(1))
	r.ErrorIs(err, ErrMissingIndexColumn)
}

func TestIndexManagerApplyWriteOptions(t *testing.T) {
	r := require.New(t)

	opts := Options{OptIndex: true, OptHeader: false}

	// the configured mode overrides a raw caller option
	updated := NewIndexManager(IndexModeNone, 0).ApplyWriteOptions(opts)
	r.Equal(false, updated[OptIndex])
	r.Equal(false, updated[OptHeader])

	updated = NewIndexManager(IndexModeLocal, 0).ApplyWriteOptions(Options{OptIndex: false})
	r.Equal(true, updated[OptIndex])

	// unset mode preserves whatever the caller asked for
	updated = NewIndexManager(IndexModeUnset, 0).ApplyWriteOptions(opts)
	r.Equal(true, updated[OptIndex])

	// the input options are never mutated
	r.Equal(true, opts[OptIndex])
}
