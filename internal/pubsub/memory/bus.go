// Package memory provides an in-process domain.SignalBus for single-instance
// deployments and tests.
package memory

import (
	"context"
	"errors"
	"path"
	"sync"

	"github.com/alanyoungcy/polydepth/internal/domain"
)

// ErrClosed is returned by operations on a closed Bus.
var ErrClosed = errors.New("memory: bus closed")

const subscriberBuffer = 128

type subscriber struct {
	pattern string
	ch      chan []byte
}

// Bus fans published payloads out to every subscription whose pattern
// matches the channel, using path.Match glob syntax. Delivery never blocks
// the publisher; a full subscriber misses the payload.
type Bus struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
	done   chan struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{}), done: make(chan struct{})}
}

// Publish delivers a copy of payload to matching subscribers.
func (b *Bus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	for s := range b.subs {
		if ok, _ := path.Match(s.pattern, channel); !ok {
			continue
		}
		msg := append([]byte(nil), payload...)
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers pattern. The returned channel is closed when ctx is
// done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, pattern string) (<-chan []byte, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	s := &subscriber{pattern: pattern, ch: make(chan []byte, subscriberBuffer)}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.remove(s)
		case <-b.done:
		}
	}()
	return s.ch, nil
}

func (b *Bus) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Close closes every subscription. Further calls fail with ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
	return nil
}

var _ domain.SignalBus = (*Bus)(nil)
