package mock

import (
	"fmt"
	"path/filepath"

	"github.com/tabmerge/tabmerge/core"
	"github.com/tabmerge/tabmerge/core/builders"
)

var _ core.Handler = (*Handler)(nil)

// Handler is a configurable in-memory format handler for tests.
type Handler struct {
	batches     []*core.Batch
	config      *handlerConfig
	written     []*core.Batch
	writtenOpts []core.Options
}

func NewHandler(batches []*core.Batch, opts ...HandlerOption) *Handler {
	config := &handlerConfig{
		extension:  "mock",
		streamable: true,
		sampleRows: 2,
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Handler{
		batches: batches,
		config:  config,
	}
}

func (h *Handler) Extension() string { return h.config.extension }
func (h *Handler) Streamable() bool  { return h.config.streamable }
func (h *Handler) SampleRows() int   { return h.config.sampleRows }

func (h *Handler) Read(path string, _ core.Options) (core.BatchStream, error) {
	if h.config.readErr != nil {
		return nil, h.config.readErr
	}
	batches := h.batches
	if perFile, ok := h.config.fileBatches[filepath.Base(path)]; ok {
		batches = perFile
	}
	if h.config.failAfter > 0 {
		return newFailingStream(copyBatches(batches), h.config.failAfter), nil
	}
	return builders.FromBatches(copyBatches(batches)...), nil
}

func (h *Handler) Write(batch *core.Batch, _ string, opts core.Options) error {
	if h.config.writeErr != nil {
		return h.config.writeErr
	}
	h.written = append(h.written, batch)
	h.writtenOpts = append(h.writtenOpts, opts)
	return nil
}

// Written returns every batch passed to Write, in order.
func (h *Handler) Written() []*core.Batch {
	return h.written
}

// WrittenOptions returns the options of every Write call, in order.
func (h *Handler) WrittenOptions() []core.Options {
	return h.writtenOpts
}

// copyBatches hands out fresh batches so a test handler can be read
// more than once (schema sampling + processing).
func copyBatches(batches []*core.Batch) []*core.Batch {
	out := make([]*core.Batch, len(batches))
	for i, b := range batches {
		clone := &core.Batch{Header: append(core.Header{}, b.Header...)}
		for _, row := range b.Rows {
			clone.Rows = append(clone.Rows, append(core.Row{}, row...))
		}
		out[i] = clone
	}
	return out
}

// failingStream yields a fixed number of batches, then errors.
type failingStream struct {
	batches []*core.Batch
	limit   int
	served  int
}

func newFailingStream(batches []*core.Batch, limit int) *failingStream {
	return &failingStream{batches: batches, limit: limit}
}

func (s *failingStream) HasNext() bool {
	return s.served < len(s.batches)
}

func (s *failingStream) Next() (*core.Batch, error) {
	if s.served >= s.limit {
		return nil, fmt.Errorf("simulated read failure after %d batches", s.served)
	}
	b := s.batches[s.served]
	s.served++
	return b, nil
}

func (s *failingStream) Close() {}

var _ core.HandlerRegistry = (*Registry)(nil)

// Registry resolves extensions to mock handlers.
type Registry struct {
	byExtension map[string]core.Handler
}

func NewRegistry(handlers ...core.Handler) *Registry {
	r := &Registry{byExtension: make(map[string]core.Handler)}
	for _, h := range handlers {
		r.byExtension[h.Extension()] = h
	}
	return r
}

func (r *Registry) Lookup(extension string) (core.Handler, error) {
	h, ok := r.byExtension[extension]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", core.ErrUnsupportedFormat, extension)
	}
	return h, nil
}

func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	return exts
}
