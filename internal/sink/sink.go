// Package sink holds the destinations discovered nodes and final records are
// written to. Every sink accepts concurrent, out-of-order writes.
package sink

import (
	"context"
	"errors"

	"github.com/fortuna/scoretree/internal/hupu"
)

// Sink receives node entries and final records. A sink that only stores one
// kind ignores the other.
type Sink interface {
	WriteNode(ctx context.Context, entry hupu.NodeEntry) error
	WriteRecord(ctx context.Context, rec hupu.FinalRecord) error
	Close() error
}

// Multi fans writes out to several sinks. Every sink is attempted; their
// errors are joined.
type Multi []Sink

// WriteNode writes entry to every sink.
func (m Multi) WriteNode(ctx context.Context, entry hupu.NodeEntry) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteNode(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteRecord writes rec to every sink.
func (m Multi) WriteRecord(ctx context.Context, rec hupu.FinalRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteRecord(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
