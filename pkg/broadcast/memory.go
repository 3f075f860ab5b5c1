package broadcast

import (
	"context"
	"sync"
)

// Option configures a MemoryBroadcaster.
type Option func(*options)

type options struct {
	replay bool
}

// WithReplay makes new subscribers receive the most recent message first.
func WithReplay() Option {
	return func(o *options) {
		o.replay = true
	}
}

// MemoryBroadcaster fans messages out in process. A subscriber whose buffer
// is full loses its oldest pending messages, never the newest.
// All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	replay      bool
	last        *Message[T]
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewMemoryBroadcaster creates an in-memory broadcaster with per-subscriber
// buffers of bufferSize (at least 1).
func NewMemoryBroadcaster[T any](bufferSize int, opts ...Option) *MemoryBroadcaster[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		replay:      o.replay,
	}
}

// Subscribe creates a subscriber that is removed when ctx is cancelled or
// the subscriber is closed.
// After Close it returns an already closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	b.subscribers[sub] = struct{}{}
	if b.replay && b.last != nil {
		sub.send(*b.last)
	}

	b.cleanupWg.Add(1)
	go func() {
		defer b.cleanupWg.Done()
		select {
		case <-ctx.Done():
		case <-sub.done:
		}
		b.unsubscribe(sub)
	}()

	return sub
}

// Broadcast delivers msg to all subscribers. It never blocks on a slow
// subscriber and is a no-op after Close.
func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.last = &msg
	for sub := range b.subscribers {
		sub.send(msg)
	}
	return nil
}

// Last returns the most recent message, if any.
func (b *MemoryBroadcaster[T]) Last() (Message[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return Message[T]{}, false
	}
	return *b.last, true
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscribers. Safe to call multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
