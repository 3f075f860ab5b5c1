package catalog

import (
	"context"
	"time"

	"github.com/paydesk/console/pkg/billingapi"
	"github.com/paydesk/console/pkg/cache"
)

// MemoryCache keeps plans in a process-local LRU.
type MemoryCache struct {
	lru *cache.LRUCache[int64, billingapi.Plan]
}

// NewMemoryCache holds up to size plans for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: cache.NewLRUCache[int64, billingapi.Plan](max(size, 1), ttl)}
}

func (m *MemoryCache) Get(_ context.Context, id int64) (billingapi.Plan, bool, error) {
	p, ok := m.lru.Get(id)
	return p, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, p billingapi.Plan) error {
	m.lru.Put(p.ID, p)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, id int64) error {
	m.lru.Remove(id)
	return nil
}
