package domain

import "context"

// SignalBus provides fire-and-forget pub/sub for computed depth events.
// Channel names may contain glob wildcards on the subscribe side.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
