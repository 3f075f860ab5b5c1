package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is the delay between two poll ticks.
const DefaultPollInterval = 3 * time.Second

// TickFunc is one poll attempt. Returning done=true ends polling successfully.
// A non-nil error is transient: it is counted against the error budget and
// polling continues.
type TickFunc func(ctx context.Context, attempt int) (done bool, err error)

// PollOption configures Poll.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval    time.Duration
	maxAttempts int
	maxErrors   int
	onError     func(attempt int, err error)
	onDone      func(err error)
}

// WithInterval sets the delay between ticks.
func WithInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.interval = d
	}
}

// WithMaxAttempts stops polling with ErrMaxAttempts after n ticks. Zero means unlimited.
func WithMaxAttempts(n int) PollOption {
	return func(c *pollConfig) {
		c.maxAttempts = max(n, 0)
	}
}

// WithMaxErrors stops polling with ErrTooManyErrors after n consecutive
// failed ticks. Zero means unlimited.
func WithMaxErrors(n int) PollOption {
	return func(c *pollConfig) {
		c.maxErrors = max(n, 0)
	}
}

// WithErrorHandler observes transient tick errors.
func WithErrorHandler(fn func(attempt int, err error)) PollOption {
	return func(c *pollConfig) {
		c.onError = fn
	}
}

// WithOnDone is called once from the polling goroutine when polling ends,
// with the same error Wait returns.
func WithOnDone(fn func(err error)) PollOption {
	return func(c *pollConfig) {
		c.onDone = fn
	}
}

// Poller is the handle of a running poll.
type Poller struct {
	cancel   context.CancelFunc
	done     chan struct{}
	attempts atomic.Int64

	mu  sync.Mutex
	err error
}

// Poll calls tick immediately and then every interval until tick reports
// done, a budget is exhausted, ctx is cancelled or Stop is called.
func Poll(ctx context.Context, tick TickFunc, opts ...PollOption) (*Poller, error) {
	cfg := pollConfig{interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.interval <= 0 {
		return nil, ErrInvalidInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		err := p.run(ctx, tick, cfg)
		cancel()

		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)

		if cfg.onDone != nil {
			cfg.onDone(err)
		}
	}()

	return p, nil
}

func (p *Poller) run(ctx context.Context, tick TickFunc, cfg pollConfig) error {
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		if ctx.Err() != nil {
			return ErrStopped
		}

		attempt := int(p.attempts.Add(1))
		done, err := tick(ctx, attempt)
		if ctx.Err() != nil {
			// a tick racing with Stop never completes the poll
			return ErrStopped
		}
		if err == nil && done {
			return nil
		}

		if err != nil {
			consecutive++
			if cfg.onError != nil {
				cfg.onError(attempt, err)
			}
			if cfg.maxErrors > 0 && consecutive >= cfg.maxErrors {
				return fmt.Errorf("%w: %w", ErrTooManyErrors, err)
			}
		} else {
			consecutive = 0
		}

		if cfg.maxAttempts > 0 && attempt >= cfg.maxAttempts {
			return ErrMaxAttempts
		}

		select {
		case <-ctx.Done():
			return ErrStopped
		case <-ticker.C:
		}
	}
}

// Stop cancels polling without waiting for an in-flight tick. Safe to call
// repeatedly and from inside a tick.
func (p *Poller) Stop() {
	p.cancel()
}

// Done is closed once the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until polling ends. It returns nil when a tick reported done,
// ErrStopped after Stop or context cancellation, ErrMaxAttempts or an error
// wrapping ErrTooManyErrors.
func (p *Poller) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Attempts returns the number of ticks started so far.
func (p *Poller) Attempts() int {
	return int(p.attempts.Load())
}

// Stopped reports whether err means the poll was cancelled rather than finished.
func Stopped(err error) bool {
	return errors.Is(err, ErrStopped)
}
