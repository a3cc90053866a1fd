package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/mock"
)

func TestFileProcessorCollectBatches(t *testing.T) {
	r := require.New(t)

	handler := mock.NewHandler(nil, mock.HandlerWithFileBatches(map[string][]*core.Batch{
		"a.mock": {core.NewBatch(core.Header{"ID", "City"}, []core.Row{
			{"1", "London"},
			{"2", "Paris"},
		})},
		"b.mock": {core.NewBatch(core.Header{"id", "country"}, []core.Row{
			{"3", "France"},
		})},
	}))
	processor := core.NewFileProcessor(mock.NewRegistry(handler), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.mock", "b.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"mock"}

	im := core.NewIndexManager(core.IndexModeUnset, 0)
	batches, err := processor.CollectBatches(cfg, nil, im, nil)
	r.NoError(err)
	r.Len(batches, 2)

	// headers are normalized and every row is tagged with its source
	r.Equal(core.Header{"id", "city", core.SourceFileColumn}, batches[0].Header)
	r.Equal([]any{"a.mock", "a.mock"}, batches[0].Column(core.SourceFileColumn))
	r.Equal([]any{"b.mock"}, batches[1].Column(core.SourceFileColumn))
}

func TestFileProcessorAlignsToSchema(t *testing.T) {
	r := require.New(t)

	handler := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"id", "extra"}, []core.Row{{"1", "dropped"}}),
	})
	processor := core.NewFileProcessor(mock.NewRegistry(handler), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"mock"}

	schema := core.NewSchema()
	schema.Merge("id", core.TypeInteger)
	schema.Merge("missing", core.TypeObject)
	schema.Merge(core.SourceFileColumn, core.TypeObject)

	im := core.NewIndexManager(core.IndexModeUnset, 0)
	batches, err := processor.CollectBatches(cfg, schema, im, nil)
	r.NoError(err)
	r.Len(batches, 1)

	r.Equal(core.Header{"id", "missing", core.SourceFileColumn}, batches[0].Header)
	r.Equal(core.Row{"1", nil, "a.mock"}, batches[0].Rows[0])
}

func TestFileProcessorAssignsIndexAcrossFiles(t *testing.T) {
	r := require.New(t)

	handler := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"v"}, []core.Row{{"a"}, {"b"}}),
	})
	processor := core.NewFileProcessor(mock.NewRegistry(handler), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.mock", "b.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"mock"}

	im := core.NewIndexManager(core.IndexModeSequential, 0)
	batches, err := processor.CollectBatches(cfg, nil, im, nil)
	r.NoError(err)
	r.Len(batches, 2)

	first, err := im.FinalizeBatch(batches[0])
	r.NoError(err)
	second, err := im.FinalizeBatch(batches[1])
	r.NoError(err)
	r.Equal([]any{0, 1}, first.Column(core.IndexColumn))
	r.Equal([]any{2, 3}, second.Column(core.IndexColumn))
	r.Equal(2, im.FilesSeen())
}

func TestFileProcessorSkipsUnopenableFiles(t *testing.T) {
	r := require.New(t)

	failing := mock.NewHandler(nil,
		mock.HandlerWithExtension("bad"),
		mock.HandlerWithReadError(errors.New("no such file")))
	working := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"id"}, []core.Row{{"1"}}),
	})
	processor := core.NewFileProcessor(mock.NewRegistry(failing, working), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.bad", "b.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"bad", "mock"}

	im := core.NewIndexManager(core.IndexModeUnset, 0)
	batches, err := processor.CollectBatches(cfg, nil, im, nil)
	r.NoError(err)
	r.Len(batches, 1)
	r.Equal([]any{"b.mock"}, batches[0].Column(core.SourceFileColumn))
}

func TestFileProcessorSkipsRestOfFailingFile(t *testing.T) {
	r := require.New(t)

	// the first batch reads fine, the second read errors; the rest of
	// the file is skipped and processing continues with the next file
	failing := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"v"}, []core.Row{{"1"}}),
		core.NewBatch(core.Header{"v"}, []core.Row{{"2"}}),
	}, mock.HandlerWithExtension("bad"), mock.HandlerWithFailAfter(1))
	working := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"v"}, []core.Row{{"3"}}),
	})
	processor := core.NewFileProcessor(mock.NewRegistry(failing, working), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.bad", "b.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"bad", "mock"}

	im := core.NewIndexManager(core.IndexModeUnset, 0)
	batches, err := processor.CollectBatches(cfg, nil, im, nil)
	r.NoError(err)
	r.Len(batches, 2)
	r.Equal([]any{"1"}, batches[0].Column("v"))
	r.Equal([]any{"3"}, batches[1].Column("v"))
}

func TestFileProcessorReportsPartialFileProgress(t *testing.T) {
	r := require.New(t)

	// one batch comes through before the read fails; the file still
	// gets a completion event for the rows it contributed
	failing := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"v"}, []core.Row{{"1"}, {"2"}}),
		core.NewBatch(core.Header{"v"}, []core.Row{{"3"}}),
	}, mock.HandlerWithExtension("bad"), mock.HandlerWithFailAfter(1))
	working := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"v"}, []core.Row{{"4"}}),
	})
	processor := core.NewFileProcessor(mock.NewRegistry(failing, working), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.bad", "b.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"bad", "mock"}

	progress := &recordingProgress{}
	im := core.NewIndexManager(core.IndexModeUnset, 0)
	_, err := processor.CollectBatches(cfg, nil, im, progress)
	r.NoError(err)

	r.Equal([]string{"a.bad", "b.mock"}, progress.files)
	r.Equal([]int{2, 1}, progress.completed)
}

func TestFileProcessorReportsProgress(t *testing.T) {
	r := require.New(t)

	handler := mock.NewHandler([]*core.Batch{
		core.NewBatch(core.Header{"v"}, []core.Row{{"a"}, {"b"}}),
	})
	processor := core.NewFileProcessor(mock.NewRegistry(handler), core.NewNoopLogger())

	folder := t.TempDir()
	touchFiles(t, folder, "a.mock", "b.mock")

	cfg := core.NewConfig(folder)
	cfg.FileTypes = []string{"mock"}

	progress := &recordingProgress{}
	im := core.NewIndexManager(core.IndexModeUnset, 0)
	_, err := processor.CollectBatches(cfg, nil, im, progress)
	r.NoError(err)

	r.Equal([]string{"a.mock", "b.mock"}, progress.files)
	r.Equal([]int{2, 2}, progress.completed)
	r.Equal(4, progress.rows)
}

type recordingProgress struct {
	core.NullProgressReporter

	files     []string
	completed []int
	rows      int
}

func (p *recordingProgress) StartFile(name string) { p.files = append(p.files, name) }
func (p *recordingProgress) UpdateRows(count, _ int) { p.rows += count }
func (p *recordingProgress) CompleteFile(rows int) { p.completed = append(p.completed, rows) }
