package sink

import (
	"context"

	"github.com/fortuna/scoretree/internal/hupu"
)

// StreamPublisher is satisfied by publisher.RedisStreamPublisher.
type StreamPublisher interface {
	PublishNode(ctx context.Context, entry hupu.NodeEntry) error
	PublishRecord(ctx context.Context, rec hupu.FinalRecord) error
}

// StreamSink forwards nodes and records to Redis streams.
type StreamSink struct {
	pub StreamPublisher
}

// NewStreamSink creates a stream sink.
func NewStreamSink(pub StreamPublisher) *StreamSink {
	return &StreamSink{pub: pub}
}

func (s *StreamSink) WriteNode(ctx context.Context, entry hupu.NodeEntry) error {
	return s.pub.PublishNode(ctx, entry)
}

func (s *StreamSink) WriteRecord(ctx context.Context, rec hupu.FinalRecord) error {
	return s.pub.PublishRecord(ctx, rec)
}

func (s *StreamSink) Close() error {
	return nil
}

// Broadcaster is satisfied by the websocket hub.
type Broadcaster interface {
	BroadcastRecord(rec hupu.FinalRecord)
}

// BroadcastSink pushes records to live websocket subscribers. Nodes are
// ignored.
type BroadcastSink struct {
	hub Broadcaster
}

// NewBroadcastSink creates a broadcast sink.
func NewBroadcastSink(hub Broadcaster) *BroadcastSink {
	return &BroadcastSink{hub: hub}
}

func (s *BroadcastSink) WriteNode(context.Context, hupu.NodeEntry) error {
	return nil
}

func (s *BroadcastSink) WriteRecord(_ context.Context, rec hupu.FinalRecord) error {
	s.hub.BroadcastRecord(rec)
	return nil
}

func (s *BroadcastSink) Close() error {
	return nil
}
