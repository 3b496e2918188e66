package index

import (
	"context"
	"errors"
	"fmt"
)

// Sink accepts chunk records.
type Sink interface {
	AddChunks(ctx context.Context, records []Record) (int, error)
}

type fileRemover interface {
	RemoveFile(ctx context.Context, filePath string) error
}

// Multi fans every write out to several sinks in order. The first sink's count is
// reported; the first failure stops the fan-out and is returned.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out over sinks. Nil sinks are ignored.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, sink := range sinks {
		if sink != nil {
			m.sinks = append(m.sinks, sink)
		}
	}
	return m
}

func (m *Multi) AddChunks(ctx context.Context, records []Record) (int, error) {
	added := 0
	for i, sink := range m.sinks {
		n, err := sink.AddChunks(ctx, records)
		if err != nil {
			return added, fmt.Errorf("store %d: %w", i, err)
		}
		if i == 0 {
			added = n
		}
	}
	return added, nil
}

// RemoveFile removes the file from every sink that supports removal.
func (m *Multi) RemoveFile(ctx context.Context, filePath string) error {
	var errs []error
	for _, sink := range m.sinks {
		if remover, ok := sink.(fileRemover); ok {
			if err := remover.RemoveFile(ctx, filePath); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
