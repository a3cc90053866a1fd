package core

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OutputWriter emits processed batches to a handler-backed file or to
// the console.
type OutputWriter struct {
	log     Logger
	console io.Writer
}

func NewOutputWriter(logger Logger, console io.Writer) *OutputWriter {
	if console == nil {
		console = os.Stdout
	}
	return &OutputWriter{log: logger, console: console}
}

// WriteStream writes finalized batches as they arrive: the first batch
// creates/overwrites the destination with a header, every later batch
// appends without one. Returns total rows written. A write failure is
// fatal and propagates immediately.
func (w *OutputWriter) WriteStream(stream BatchStream, outputFile string, handler Handler, opts Options, im *IndexManager) (int, error) {
	defer stream.Close()

	totalRows := 0
	first := true

	for stream.HasNext() {
		batch, err := stream.Next()
		if err != nil {
			return totalRows, fmt.Errorf("stream.Next: %w", err)
		}
		if batch == nil {
			break
		}

		batch, err = im.FinalizeBatch(batch)
		if err != nil {
			return totalRows, err
		}

		if handler != nil && outputFile != "" {
			batchOpts := opts.Merge(Options{
				OptAppend: !first,
				OptHeader: first,
			})
			if err := handler.Write(batch, outputFile, batchOpts); err != nil {
				return totalRows, fmt.Errorf("handler.Write: %w", err)
			}
		} else {
			if err := w.renderConsole(batch, opts.Bool(OptIndex, false)); err != nil {
				return totalRows, err
			}
		}

		first = false
		totalRows += batch.Len()
	}

	if handler != nil && outputFile != "" {
		w.log.Infof("streaming output complete: %d rows written to %q", totalRows, outputFile)
	}
	return totalRows, nil
}

// WriteTable finalizes the table's index and performs exactly one write
// or render. An empty table is a no-op returning zero rows.
func (w *OutputWriter) WriteTable(t *Table, outputFile string, handler Handler, opts Options, im *IndexManager) (int, error) {
	if t.IsEmpty() {
		w.log.Warn("no data to write: empty table")
		return 0, nil
	}

	t, err := im.FinalizeTable(t)
	if err != nil {
		return 0, err
	}

	if handler != nil && outputFile != "" {
		if err := handler.Write(t, outputFile, opts); err != nil {
			return 0, fmt.Errorf("handler.Write: %w", err)
		}
		w.log.Infof("batch output complete: %d rows, %d columns written to %q",
			t.Len(), len(t.Header), outputFile)
	} else {
		if err := w.renderConsole(t, opts.Bool(OptIndex, false)); err != nil {
			return 0, err
		}
	}

	return t.Len(), nil
}

// renderConsole prints a batch as a plain text table, honoring the
// index-visibility flag.
func (w *OutputWriter) renderConsole(b *Batch, includeIndex bool) error {
	render := b
	if !includeIndex && b.ColumnIndex(IndexColumn) >= 0 {
		render = b.Reindex(withoutColumn(b.Header, IndexColumn))
	}

	var headers table.Row
	for _, col := range render.Header {
		headers = append(headers, col)
	}

	var rows []table.Row
	for _, row := range render.Rows {
		rows = append(rows, table.Row(row))
	}

	t := table.NewWriter()
	t.AppendHeader(headers)
	t.AppendRows(rows)
	t.AppendSeparator()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false

	_, err := fmt.Fprintln(w.console, t.Render())
	return err
}

func withoutColumn(header Header, drop string) []string {
	out := make([]string, 0, len(header))
	for _, col := range header {
		if col != drop {
			out = append(out, col)
		}
	}
	return out
}
