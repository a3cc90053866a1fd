package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/builders"
)

const defaultChunkSize = 10_000

var _ core.Handler = (*CSVHandler)(nil)

// CSVHandler reads and writes comma separated files in chunks, so
// arbitrarily large inputs never have to fit in memory at once.
type CSVHandler struct{}

func NewCSV() *CSVHandler {
	return &CSVHandler{}
}

func (h *CSVHandler) Extension() string {
	return "csv"
}

func (h *CSVHandler) Streamable() bool {
	return true
}

func (h *CSVHandler) SampleRows() int {
	return 2
}

// Read opens the file and returns a stream of row chunks. The first
// record is always taken as the header.
func (h *CSVHandler) Read(path string, opts core.Options) (core.BatchStream, error) {
	opts = opts.Filter(core.OptDelimiter, core.OptChunkSize)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("handlers.CSVHandler: %w", err)
	}

	reader := csv.NewReader(file)
	reader.Comma = delimiterOf(opts)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("handlers.CSVHandler: %w: %s", core.ErrNoTabularData, path)
		}
		return nil, fmt.Errorf("handlers.CSVHandler: %w", err)
	}

	chunkSize := opts.Int(core.OptChunkSize, defaultChunkSize)
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}

	// one record of lookahead so HasNext is accurate and batches are
	// never empty
	pending, pendingErr := reader.Read()

	hasNext := func() bool {
		return pendingErr == nil
	}
	next := func() (*core.Batch, error) {
		if pendingErr != nil {
			if errors.Is(pendingErr, io.EOF) {
				return nil, errors.New("handlers.CSVHandler: no next batch")
			}
			return nil, fmt.Errorf("handlers.CSVHandler: %w", pendingErr)
		}

		rows := make([]core.Row, 0, chunkSize)
		for pendingErr == nil && len(rows) < chunkSize {
			row := make(core.Row, len(pending))
			for i, field := range pending {
				row[i] = field
			}
			rows = append(rows, row)
			pending, pendingErr = reader.Read()
		}
		if pendingErr != nil && !errors.Is(pendingErr, io.EOF) {
			return nil, fmt.Errorf("handlers.CSVHandler: %w", pendingErr)
		}

		return core.NewBatch(append(core.Header{}, header...), rows), nil
	}

	return builders.NewStreamBuilder().
		WithNextFunc(next, hasNext).
		WithCloseFunc(func() { file.Close() }).
		Build(), nil
}

// Write creates or appends to the file. The header is only emitted
// when the header option asks for it, which the output writer does for
// the first batch of a run.
func (h *CSVHandler) Write(batch *core.Batch, path string, opts core.Options) error {
	opts = opts.Filter(core.OptAppend, core.OptHeader, core.OptDelimiter)

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if opts.Bool(core.OptAppend, false) {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("handlers.CSVHandler: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = delimiterOf(opts)

	if opts.Bool(core.OptHeader, true) {
		if err := writer.Write(batch.Header); err != nil {
			return fmt.Errorf("handlers.CSVHandler: %w", err)
		}
	}

	record := make([]string, len(batch.Header))
	for _, row := range batch.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = formatValue(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("handlers.CSVHandler: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("handlers.CSVHandler: %w", err)
	}
	return nil
}

func delimiterOf(opts core.Options) rune {
	if d := opts.String(core.OptDelimiter, ""); d != "" {
		return []rune(d)[0]
	}
	return ','
}
