package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fortuna/scoretree/internal/hupu"
)

// CSVSink writes final records as CSV rows under hupu.RecordHeader. Node
// entries are ignored. Each row is flushed as it is written.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink writes the header to w and returns a sink over it.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w)}
	if closer, ok := w.(io.Closer); ok {
		s.closer = closer
	}
	if err := s.writeRow(hupu.RecordHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return s, nil
}

// CreateCSV truncates path and returns a CSVSink writing to it.
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	s, err := NewCSVSink(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// WriteNode is a no-op.
func (s *CSVSink) WriteNode(context.Context, hupu.NodeEntry) error {
	return nil
}

// WriteRecord appends one row.
func (s *CSVSink) WriteRecord(_ context.Context, rec hupu.FinalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRow(rec.Row())
}

func (s *CSVSink) writeRow(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying writer if it is closable.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
