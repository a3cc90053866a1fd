package core

import (
	"errors"
	"fmt"
	"path/filepath"
)

// FileProcessor drives handler, normalizer and index manager for every
// eligible file of a run. Handlers are cached per run; they hold no
// per-run mutable state.
type FileProcessor struct {
	registry HandlerRegistry
	log      Logger
	handlers map[string]Handler
}

func NewFileProcessor(registry HandlerRegistry, logger Logger) *FileProcessor {
	return &FileProcessor{
		registry: registry,
		log:      logger,
		handlers: make(map[string]Handler),
	}
}

func (p *FileProcessor) handler(extension string) (Handler, error) {
	if h, ok := p.handlers[extension]; ok {
		return h, nil
	}
	h, err := p.registry.Lookup(extension)
	if err != nil {
		return nil, err
	}
	p.handlers[extension] = h
	return h, nil
}

// StreamBatches returns a lazy stream of fully processed batches across
// every eligible file. A file whose read fails is logged and skipped;
// the stream continues with the next file.
func (p *FileProcessor) StreamBatches(cfg *Config, schema *Schema, im *IndexManager, progress ProgressReporter) (BatchStream, error) {
	files, err := DiscoverFiles(cfg.InputFolder, cfg.Recursive, cfg.fileTypes())
	if err != nil {
		return nil, fmt.Errorf("core.DiscoverFiles: %w", err)
	}
	if progress == nil {
		progress = &NullProgressReporter{}
	}

	return &fileStream{
		processor: p,
		cfg:       cfg,
		schema:    schema,
		im:        im,
		progress:  progress,
		files:     files,
	}, nil
}

// CollectBatches drains the same per-file pipeline into memory.
func (p *FileProcessor) CollectBatches(cfg *Config, schema *Schema, im *IndexManager, progress ProgressReporter) ([]*Batch, error) {
	stream, err := p.StreamBatches(cfg, schema, im, progress)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var batches []*Batch
	for stream.HasNext() {
		batch, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// processBatch applies provenance tagging, normalization, schema
// alignment and index assignment to one raw batch.
func (p *FileProcessor) processBatch(b *Batch, path string, cfg *Config, schema *Schema, im *IndexManager, isNewFile bool) *Batch {
	b.AddConstColumn(SourceFileColumn, sourceFilePath(cfg.InputFolder, path))

	NormalizeBatch(b, cfg.SchemaMap, cfg.ToLower, cfg.SpacesToUnderscores)

	if schema != nil {
		b = b.Reindex(schema.Columns())
	} else if len(cfg.Columns) > 0 {
		b = b.Reindex(cfg.Columns)
	}

	return im.ProcessBatch(b, isNewFile)
}

// fileStream walks the eligible files, yielding processed batches one
// at a time. Per-file read failures are recovered here: the file is
// skipped and the run continues.
type fileStream struct {
	processor *FileProcessor
	cfg       *Config
	schema    *Schema
	im        *IndexManager
	progress  ProgressReporter

	files     []string
	fileIndex int

	current     BatchStream
	currentPath string
	fileRows    int
	firstBatch  bool

	pending *Batch
	closed  bool
}

var _ BatchStream = (*fileStream)(nil)

func (s *fileStream) HasNext() bool {
	if s.closed {
		return false
	}
	if s.pending == nil {
		s.pending = s.fetch()
	}
	return s.pending != nil
}

func (s *fileStream) Next() (*Batch, error) {
	if !s.HasNext() {
		return nil, errors.New("no next batch")
	}
	batch := s.pending
	s.pending = nil
	return batch, nil
}

func (s *fileStream) Close() {
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	s.closed = true
}

// fetch pulls the next processed batch, advancing through files as
// their streams drain or fail.
func (s *fileStream) fetch() *Batch {
	for {
		if s.current == nil {
			if !s.openNextFile() {
				return nil
			}
		}

		if !s.current.HasNext() {
			s.finishFile()
			continue
		}

		batch, err := s.current.Next()
		if err != nil {
			s.processor.log.Errorf("failed to read %q, skipping rest of file: %s", s.currentPath, err)
			s.finishFile()
			continue
		}
		if batch == nil {
			s.finishFile()
			continue
		}

		isNewFile := s.firstBatch
		s.firstBatch = false

		processed := s.processor.processBatch(batch, s.currentPath, s.cfg, s.schema, s.im, isNewFile)
		s.fileRows += processed.Len()
		s.progress.UpdateRows(processed.Len(), 0)
		return processed
	}
}

// openNextFile advances to the next readable file. Returns false when
// the file list is exhausted.
func (s *fileStream) openNextFile() bool {
	for s.fileIndex < len(s.files) {
		path := s.files[s.fileIndex]
		s.fileIndex++

		handler, err := s.processor.handler(ExtensionOf(path))
		if err != nil {
			s.processor.log.Errorf("no handler for %q, skipping: %s", path, err)
			continue
		}

		s.processor.log.Infof("processing %q", filepath.Base(path))
		stream, err := handler.Read(path, s.cfg.ReadOptions)
		if err != nil {
			s.processor.log.Errorf("failed to open %q, skipping: %s", path, err)
			continue
		}

		s.progress.StartFile(filepath.Base(path))
		s.current = stream
		s.currentPath = path
		s.fileRows = 0
		s.firstBatch = true
		return true
	}
	return false
}

func (s *fileStream) finishFile() {
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	if !s.firstBatch {
		s.progress.CompleteFile(s.fileRows)
	}
}
