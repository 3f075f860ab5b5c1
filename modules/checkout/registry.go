package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/paydesk/console/pkg/cache"
	"github.com/paydesk/console/pkg/checkout"
	"github.com/paydesk/console/pkg/logger"
)

// Registry holds live flows by id. Flows expire after a period without
// access and are closed when they leave the registry for any reason.
type Registry struct {
	flows  *cache.LRUCache[string, *checkout.Flow]
	logger *slog.Logger
}

// NewRegistry creates a registry holding at most size flows for ttl each.
func NewRegistry(size int, ttl time.Duration, log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	r := &Registry{
		flows:  cache.NewLRUCache[string, *checkout.Flow](size, ttl),
		logger: log,
	}
	r.flows.SetEvictCallback(func(id string, f *checkout.Flow) {
		r.logger.Debug("checkout flow released", logger.FlowID(id), slog.String("phase", f.Phase().String()))
		f.Close()
	})
	return r
}

// Add registers f. A flow with the same id is closed.
func (r *Registry) Add(f *checkout.Flow) {
	if prev, ok := r.flows.Put(f.ID(), f); ok && prev != f {
		prev.Close()
	}
}

// Get returns a live flow and extends its lifetime.
func (r *Registry) Get(id string) (*checkout.Flow, bool) {
	f, ok := r.flows.Get(id)
	if !ok {
		return nil, false
	}
	if f.Closed() {
		r.flows.Remove(id)
		return nil, false
	}
	r.flows.Touch(id)
	return f, true
}

// Remove closes and forgets a flow.
func (r *Registry) Remove(id string) {
	r.flows.Remove(id)
}

func (r *Registry) Len() int { return r.flows.Len() }

// Run purges expired flows every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.flows.Purge(); n > 0 {
				r.logger.DebugContext(ctx, "expired checkout flows purged", slog.Int("count", n))
			}
		}
	}
}

// Close closes every flow, ending their event streams.
func (r *Registry) Close() {
	r.flows.Clear()
}
