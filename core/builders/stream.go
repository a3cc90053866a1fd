package builders

import (
	"errors"
	"sync"

	"github.com/tabmerge/tabmerge/core"
)

// Stream fills the core.BatchStream interface for all handlers.
type Stream struct {
	next    func() (*core.Batch, error)
	hasNext func() bool
	close   func()
	once    sync.Once
}

func (s *Stream) HasNext() bool {
	return s.hasNext()
}

func (s *Stream) Next() (*core.Batch, error) {
	batch, err := s.next()
	if err != nil {
		s.Close()
		return nil, err
	}
	return batch, nil
}

func (s *Stream) Close() {
	s.once.Do(s.close)
	s.hasNext = func() bool { return false }
}

// StreamBuilder builds batch streams.
type StreamBuilder struct {
	next    func() (*core.Batch, error)
	hasNext func() bool
	close   func()
}

func NewStreamBuilder() *StreamBuilder {
	return &StreamBuilder{
		next:    func() (*core.Batch, error) { return nil, errors.New("no next batch") },
		hasNext: func() bool { return false },
		close:   func() {},
	}
}

func (b *StreamBuilder) WithNextFunc(next func() (*core.Batch, error), hasNext func() bool) *StreamBuilder {
	b.next = next
	b.hasNext = hasNext
	return b
}

func (b *StreamBuilder) WithCloseFunc(close func()) *StreamBuilder {
	b.close = close
	return b
}

func (b *StreamBuilder) Build() *Stream {
	return &Stream{
		next:    b.next,
		hasNext: b.hasNext,
		close:   b.close,
	}
}

// FromBatches creates a stream over already materialized batches.
func FromBatches(batches ...*core.Batch) *Stream {
	index := 0

	hasNext := func() bool {
		return index < len(batches)
	}
	next := func() (*core.Batch, error) {
		if !hasNext() {
			return nil, errors.New("no next batch")
		}
		batch := batches[index]
		index++
		return batch, nil
	}

	return NewStreamBuilder().WithNextFunc(next, hasNext).Build()
}

// Empty creates a stream with no batches.
func Empty() *Stream {
	return NewStreamBuilder().Build()
}
