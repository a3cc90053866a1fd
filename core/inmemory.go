package core

import (
	"fmt"
	"time"
)

// inMemoryStrategy materializes the whole run in memory before a single
// write. Columns reconcile implicitly through concatenation, so schema
// detection only runs when explicit columns force an output shape.
type inMemoryStrategy struct {
	detector *SchemaDetector
	files    *FileProcessor
	output   *OutputWriter
	log      Logger
	progress ProgressReporter
}

func (s *inMemoryStrategy) process(cfg *Config, writer Handler) (*Result, error) {
	start := time.Now()

	im := NewIndexManager(cfg.IndexMode, cfg.IndexStart)
	writeOpts := im.ApplyWriteOptions(cfg.WriteOptions)

	var schema *Schema
	if len(cfg.Columns) > 0 {
		var err error
		schema, err = s.detector.Detect(cfg)
		if err != nil {
			return nil, fmt.Errorf("detector.Detect: %w", err)
		}
	}

	s.log.Info("starting in-memory processing")

	batches, err := s.files.CollectBatches(cfg, schema, im, s.progress)
	if err != nil {
		return nil, fmt.Errorf("files.CollectBatches: %w", err)
	}

	if len(batches) == 0 {
		s.log.Warn("no data batches processed")
		return &Result{
			ProcessingTime: time.Since(start),
			OutputFile:     cfg.OutputFile,
			Data:           &Table{},
		}, nil
	}

	table := Concat(batches)

	totalRows, err := s.output.WriteTable(table, cfg.OutputFile, writer, writeOpts, im)
	if err != nil {
		return nil, fmt.Errorf("output.WriteTable: %w", err)
	}

	return &Result{
		FilesProcessed: countSourceFiles(table),
		TotalRows:      totalRows,
		TotalColumns:   len(table.Header),
		ProcessingTime: time.Since(start),
		OutputFile:     cfg.OutputFile,
		Schema:         schema,
		Data:           table,
	}, nil
}

// countSourceFiles counts distinct provenance values in the output.
func countSourceFiles(t *Table) int {
	values := t.Column(SourceFileColumn)
	if values == nil {
		return 0
	}
	seen := make(map[any]struct{})
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
