package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

// subscriberBuffer is the per-subscription channel capacity.
const subscriberBuffer = 128

// Bus implements domain.SignalBus over Redis Pub/Sub.
type Bus struct {
	rdb redis.UniversalClient
}

// NewBus wraps an established client. Close closes the client.
func NewBus(rdb redis.UniversalClient) *Bus {
	return &Bus{rdb: rdb}
}

// Publish sends payload to channel.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe listens on channel, which may be a glob pattern such as
// "depth:*". The returned channel is closed when ctx is cancelled or the
// subscription ends.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var ps *redis.PubSub
	if isPattern(channel) {
		ps = b.rdb.PSubscribe(ctx, channel)
	} else {
		ps = b.rdb.Subscribe(ctx, channel)
	}

	// The first reply confirms the subscription.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subscriberBuffer)
	go forward(ctx, ps, out)
	return out, nil
}

func forward(ctx context.Context, ps *redis.PubSub, out chan<- []byte) {
	defer close(out)
	defer ps.Close()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close releases the underlying client.
func (b *Bus) Close() error {
	if err := b.rdb.Close(); err != nil {
		return fmt.Errorf("redis: close: %w", err)
	}
	return nil
}

// isPattern reports whether channel needs PSUBSCRIBE.
func isPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

var _ domain.SignalBus = (*Bus)(nil)
