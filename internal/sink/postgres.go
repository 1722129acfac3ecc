package sink

import (
	"context"

	"github.com/fortuna/scoretree/internal/hupu"
)

// NodeStore is satisfied by repository.NodeRepository.
type NodeStore interface {
	Upsert(ctx context.Context, entry hupu.NodeEntry) error
}

// RecordStore is satisfied by repository.RecordRepository.
type RecordStore interface {
	Insert(ctx context.Context, rec hupu.FinalRecord) error
}

// PostgresSink persists nodes and records through the store repositories.
// Either store may be nil to skip that kind.
type PostgresSink struct {
	nodes   NodeStore
	records RecordStore
}

// NewPostgresSink creates a Postgres-backed sink.
func NewPostgresSink(nodes NodeStore, records RecordStore) *PostgresSink {
	return &PostgresSink{nodes: nodes, records: records}
}

// WriteNode upserts entry.
func (s *PostgresSink) WriteNode(ctx context.Context, entry hupu.NodeEntry) error {
	if s.nodes == nil {
		return nil
	}
	return s.nodes.Upsert(ctx, entry)
}

// WriteRecord inserts rec.
func (s *PostgresSink) WriteRecord(ctx context.Context, rec hupu.FinalRecord) error {
	if s.records == nil {
		return nil
	}
	return s.records.Insert(ctx, rec)
}

// Close is a no-op; the database handle is owned by the caller.
func (s *PostgresSink) Close() error {
	return nil
}
