// Package cache provides a generic, thread-safe LRU cache with optional
// per-item expiry.
//
//	plans := cache.NewLRUCache[int64, billingapi.Plan](256, 5*time.Minute)
//	plans.Put(p.ID, p)
//	if p, ok := plans.Get(id); ok {
//		// fresh hit
//	}
//
// Items leave the cache when capacity is exceeded (least recently used
// first), when their TTL has passed and they are read or purged, or when
// removed explicitly. The evict callback observes every departure and runs
// outside the cache lock, so it may close resources or call into the cache.
package cache
