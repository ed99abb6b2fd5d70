package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const streamPrefix = "vivarium:ecosystem:"

// StreamBridge mirrors ecosystem events onto Redis Streams so external
// transports and other processes can consume them. Each ecosystem gets
// its own stream, preserving publish order.
type StreamBridge struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewStreamBridge connects a bridge to Redis.
func NewStreamBridge(redisURL string, logger *zap.Logger) (*StreamBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &StreamBridge{rdb: rdb, logger: logger}, nil
}

// Publish appends the event to the ecosystem's stream. Mirroring is
// best-effort: a Redis failure is logged and never surfaces to the
// interaction path.
func (sb *StreamBridge) Publish(ecosystemID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		sb.logger.Warn("marshal event for stream", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := streamPrefix + ecosystemID
	if err := sb.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err(); err != nil {
		sb.logger.Warn("mirror event to stream failed",
			zap.String("stream", stream), zap.Error(err))
		return
	}

	sb.logger.Debug("event mirrored",
		zap.String("ecosystem", ecosystemID),
		zap.String("event", ev.ID))
}

// Subscribe tails an ecosystem's stream starting after lastID ("0" for
// the beginning, "$" for new events only). Cancel the context to stop.
func (sb *StreamBridge) Subscribe(ctx context.Context, ecosystemID, lastID string) <-chan Event {
	ch := make(chan Event, DefaultBufferSize)
	stream := streamPrefix + ecosystemID
	if lastID == "" {
		lastID = "$"
	}

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			results, err := sb.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   16,
				Block:   time.Second,
			}).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev Event
					if json.Unmarshal([]byte(data), &ev) != nil {
						continue
					}
					select {
					case ch <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (sb *StreamBridge) Close() error {
	return sb.rdb.Close()
}

// Tee fans one publish call out to several publishers in order.
type Tee []Publisher

// Publisher is anything that can receive ecosystem events. The in-memory
// Bus and the StreamBridge both satisfy it.
type Publisher interface {
	Publish(ecosystemID string, ev Event)
}

// Publish forwards the event to every publisher.
func (t Tee) Publish(ecosystemID string, ev Event) {
	for _, p := range t {
		p.Publish(ecosystemID, ev)
	}
}
