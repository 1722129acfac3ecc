package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/scoretree/internal/hupu"
)

// Stream names.
const (
	NodesStream   = "scoretree.nodes"
	RecordsStream = "scoretree.records"
)

// StreamAdder is the subset of the go-redis client the publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher publishes harvest output to Redis streams.
type RedisStreamPublisher struct {
	client StreamAdder
	maxLen int64
	now    func() time.Time
}

// NewRedisStreamPublisher creates a publisher on an existing client. maxLen > 0
// caps each stream approximately.
func NewRedisStreamPublisher(client StreamAdder, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		maxLen: maxLen,
		now:    time.Now,
	}
}

// PublishNode appends a discovered node entry to NodesStream.
func (p *RedisStreamPublisher) PublishNode(ctx context.Context, entry hupu.NodeEntry) error {
	return p.publish(ctx, NodesStream, entry)
}

// PublishRecord appends a final record to RecordsStream.
func (p *RedisStreamPublisher) PublishRecord(ctx context.Context, rec hupu.FinalRecord) error {
	return p.publish(ctx, RecordsStream, rec.Fields())
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", stream, err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": p.now().Unix(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}
