package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the channel messages arrive on. It is closed when the
	// subscription ends.
	Receive(ctx context.Context) <-chan Message[T]

	// Close ends the subscription. Idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers without blocking on slow ones.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber for the lifetime of ctx.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every active subscriber.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes all subscribers. Later subscriptions are returned closed.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	done   chan struct{}
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch:   make(chan Message[T], bufferSize),
		done: make(chan struct{}),
	}
}

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		close(s.done)
		s.closed = true
	}
	return nil
}

// send enqueues msg, discarding the oldest buffered messages while the
// buffer is full. Subscribers see the newest state even if they lag.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	for {
		select {
		case s.ch <- msg:
			return true
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
