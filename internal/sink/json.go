package sink

import (
	"context"
	"sync"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/registry"
)

// JSONNodeSink collects node entries and writes them as the registry JSON
// array on Close. Records are ignored.
type JSONNodeSink struct {
	path string

	mu      sync.Mutex
	entries []hupu.NodeEntry
}

// NewJSONNodeSink creates a sink that saves to path.
func NewJSONNodeSink(path string) *JSONNodeSink {
	return &JSONNodeSink{path: path}
}

// WriteNode buffers entry.
func (s *JSONNodeSink) WriteNode(_ context.Context, entry hupu.NodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// WriteRecord is a no-op.
func (s *JSONNodeSink) WriteRecord(context.Context, hupu.FinalRecord) error {
	return nil
}

// Entries returns a copy of the buffered entries.
func (s *JSONNodeSink) Entries() []hupu.NodeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hupu.NodeEntry(nil), s.entries...)
}

// Close writes the buffered entries.
func (s *JSONNodeSink) Close() error {
	return registry.SaveFile(s.path, s.Entries())
}
