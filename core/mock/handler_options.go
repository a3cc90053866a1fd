package mock

import "github.com/tabmerge/tabmerge/core"

type handlerConfig struct {
	extension   string
	streamable  bool
	sampleRows  int
	readErr     error
	writeErr    error
	failAfter   int
	fileBatches map[string][]*core.Batch
}

type HandlerOption func(*handlerConfig)

func HandlerWithExtension(extension string) HandlerOption {
	return func(c *handlerConfig) { c.extension = extension }
}

func HandlerWithStreamable(streamable bool) HandlerOption {
	return func(c *handlerConfig) { c.streamable = streamable }
}

func HandlerWithSampleRows(rows int) HandlerOption {
	return func(c *handlerConfig) { c.sampleRows = rows }
}

// HandlerWithReadError makes every Read call fail.
func HandlerWithReadError(err error) HandlerOption {
	return func(c *handlerConfig) { c.readErr = err }
}

// HandlerWithWriteError makes every Write call fail.
func HandlerWithWriteError(err error) HandlerOption {
	return func(c *handlerConfig) { c.writeErr = err }
}

// HandlerWithFailAfter makes reads error after n successful batches.
func HandlerWithFailAfter(n int) HandlerOption {
	return func(c *handlerConfig) { c.failAfter = n }
}

// HandlerWithFileBatches serves different batches per file base name,
// falling back to the handler's default batches.
func HandlerWithFileBatches(fileBatches map[string][]*core.Batch) HandlerOption {
	return func(c *handlerConfig) { c.fileBatches = fileBatches }
}
