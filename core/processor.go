package core

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// Result summarizes one processing run.
type Result struct {
	RunID          string
	FilesProcessed int
	TotalRows      int
	TotalColumns   int
	ProcessingTime time.Duration
	OutputFile     string
	Schema         *Schema
	// Data holds the full consolidated table. Present only for
	// in-memory runs.
	Data *Table
}

type strategy interface {
	process(cfg *Config, writer Handler) (*Result, error)
}

// Processor orchestrates a run: validates the config, picks a strategy,
// merges default options and reports progress.
type Processor struct {
	registry HandlerRegistry
	log      Logger
	progress ProgressReporter
	console  io.Writer

	readDefaults  Options
	writeDefaults Options

	detector *SchemaDetector
	files    *FileProcessor
	output   *OutputWriter
}

type ProcessorOption func(*Processor)

func WithLogger(logger Logger) ProcessorOption {
	return func(p *Processor) { p.log = logger }
}

func WithProgressReporter(progress ProgressReporter) ProcessorOption {
	return func(p *Processor) { p.progress = progress }
}

// WithReadDefaults sets read options merged under every config's own.
func WithReadDefaults(opts Options) ProcessorOption {
	return func(p *Processor) { p.readDefaults = opts }
}

// WithWriteDefaults sets write options merged under every config's own.
func WithWriteDefaults(opts Options) ProcessorOption {
	return func(p *Processor) { p.writeDefaults = opts }
}

// WithConsole redirects console output, mainly for tests.
func WithConsole(console io.Writer) ProcessorOption {
	return func(p *Processor) { p.console = console }
}

func NewProcessor(registry HandlerRegistry, opts ...ProcessorOption) *Processor {
	p := &Processor{
		registry:      registry,
		log:           NewLogger(os.Stderr),
		progress:      &NullProgressReporter{},
		console:       os.Stdout,
		readDefaults:  Options{},
		writeDefaults: Options{},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.detector = NewSchemaDetector(registry, p.log)
	p.files = NewFileProcessor(registry, p.log)
	p.output = NewOutputWriter(p.log, p.console)
	return p
}

// Run processes the configured input folder and returns a run summary.
func (p *Processor) Run(cfg *Config) (*Result, error) {
	if err := cfg.Validate(p.registry); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	p.log.Infof("run %s: input=%q output=%q", runID, cfg.InputFolder, cfg.OutputFile)

	writer, canStream, err := p.resolveOutputHandler(cfg)
	if err != nil {
		return nil, err
	}

	cfg.ReadOptions = p.readDefaults.Merge(cfg.ReadOptions)
	cfg.WriteOptions = p.writeDefaults.Merge(cfg.WriteOptions)

	files, err := DiscoverFiles(cfg.InputFolder, cfg.Recursive, cfg.fileTypes())
	if err != nil {
		return nil, fmt.Errorf("core.DiscoverFiles: %w", err)
	}
	p.progress.StartProcessing(len(files))

	result, err := p.selectStrategy(cfg, canStream).process(cfg, writer)
	if err != nil {
		return nil, err
	}
	result.RunID = runID

	p.progress.CompleteProcessing(result.TotalRows, result.ProcessingTime)
	return result, nil
}

// resolveOutputHandler looks up the handler for the output file. An
// unsupported output extension is fatal before any file is touched.
func (p *Processor) resolveOutputHandler(cfg *Config) (Handler, bool, error) {
	if cfg.OutputFile == "" {
		return nil, false, nil
	}

	extension := ExtensionOf(cfg.OutputFile)
	handler, err := p.registry.Lookup(extension)
	if err != nil {
		return nil, false, fmt.Errorf("output file %q: %w", cfg.OutputFile, err)
	}
	return handler, handler.Streamable(), nil
}

func (p *Processor) selectStrategy(cfg *Config, canStreamOutput bool) strategy {
	if cfg.ForceInMemory {
		p.log.Info("using in-memory processing (forced by configuration)")
		return p.inMemory()
	}
	if !canStreamOutput {
		p.log.Info("using in-memory processing (output requires full materialization)")
		return p.inMemory()
	}
	p.log.Info("using streaming processing")
	return p.streaming()
}

func (p *Processor) streaming() *streamingStrategy {
	return &streamingStrategy{
		detector: p.detector,
		files:    p.files,
		output:   p.output,
		log:      p.log,
		progress: p.progress,
	}
}

func (p *Processor) inMemory() *inMemoryStrategy {
	return &inMemoryStrategy{
		detector: p.detector,
		files:    p.files,
		output:   p.output,
		log:      p.log,
		progress: p.progress,
	}
}
