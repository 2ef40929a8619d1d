package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil, false
	}
}

func TestPublishMatchesPattern(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New()
	all, err := b.Subscribe(ctx, "depth:*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	one, err := b.Subscribe(ctx, "depth:42")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := b.Publish(ctx, "depth:7", []byte("seven")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Publish(ctx, "depth:42", []byte("forty-two")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := b.Publish(ctx, "other", []byte("ignored")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if msg, _ := recv(t, all); string(msg) != "seven" {
		t.Errorf("got %q, want seven", msg)
	}
	if msg, _ := recv(t, all); string(msg) != "forty-two" {
		t.Errorf("got %q, want forty-two", msg)
	}
	if msg, _ := recv(t, one); string(msg) != "forty-two" {
		t.Errorf("got %q, want forty-two", msg)
	}
	select {
	case msg := <-all:
		t.Errorf("unexpected message %q", msg)
	default:
	}
}

func TestSubscriptionClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := New()
	ch, err := b.Subscribe(ctx, "depth:*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	if _, ok := recv(t, ch); ok {
		t.Error("channel still open after cancel")
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	b := New()
	ch, err := b.Subscribe(ctx, "*")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := recv(t, ch); ok {
		t.Error("channel still open after Close")
	}
	if err := b.Publish(ctx, "x", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after close: err = %v, want ErrClosed", err)
	}
	if _, err := b.Subscribe(ctx, "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after close: err = %v, want ErrClosed", err)
	}
}

func TestSubscribeBadPattern(t *testing.T) {
	if _, err := New().Subscribe(context.Background(), "depth:["); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
