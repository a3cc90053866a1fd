package core

import (
	"fmt"
	"time"
)

// streamingStrategy processes files chunk by chunk with constant memory.
// Schema detection is mandatory upfront: append writes cannot change a
// header retroactively, so every batch must share one column order.
type streamingStrategy struct {
	detector *SchemaDetector
	files    *FileProcessor
	output   *OutputWriter
	log      Logger
	progress ProgressReporter
}

func (s *streamingStrategy) process(cfg *Config, writer Handler) (*Result, error) {
	start := time.Now()

	im := NewIndexManager(cfg.IndexMode, cfg.IndexStart)
	writeOpts := im.ApplyWriteOptions(cfg.WriteOptions)

	schema, err := s.detector.Detect(cfg)
	if err != nil {
		return nil, fmt.Errorf("detector.Detect: %w", err)
	}

	s.log.Infof("starting streaming processing with %d schema columns", schema.Len())

	stream, err := s.files.StreamBatches(cfg, schema, im, s.progress)
	if err != nil {
		return nil, fmt.Errorf("files.StreamBatches: %w", err)
	}

	totalRows, err := s.output.WriteStream(stream, cfg.OutputFile, writer, writeOpts, im)
	if err != nil {
		return nil, fmt.Errorf("output.WriteStream: %w", err)
	}

	return &Result{
		FilesProcessed: s.countEligibleFiles(cfg),
		TotalRows:      totalRows,
		TotalColumns:   schema.Len(),
		ProcessingTime: time.Since(start),
		OutputFile:     cfg.OutputFile,
		Schema:         schema,
	}, nil
}

// countEligibleFiles re-counts the files on disk after the fact.
// Streaming doesn't track which files actually contributed rows, so a
// file that failed mid-read is still counted here.
func (s *streamingStrategy) countEligibleFiles(cfg *Config) int {
	files, err := DiscoverFiles(cfg.InputFolder, cfg.Recursive, cfg.fileTypes())
	if err != nil {
		return 0
	}
	return len(files)
}
