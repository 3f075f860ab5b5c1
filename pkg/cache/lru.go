package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache is a thread-safe LRU cache with optional expiry.
// When the cache reaches its capacity, the least recently used item is evicted.
// Expired items are dropped lazily on access and by Purge.
type LRUCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	onEvict  func(key K, value V)
	now      func() time.Time
}

// NewLRUCache creates a cache holding at most capacity items, each living
// for ttl after its last Put or Touch. A zero ttl never expires items.
// The capacity must be positive, otherwise it panics.
func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		ttl:      max(ttl, 0),
		items:    make(map[K]*list.Element),
		eviction: list.New(),
		now:      time.Now,
	}
}

// SetEvictCallback sets a function called for every item leaving the cache
// by eviction, expiry, Remove or Clear. It runs after the cache lock is
// released, so it may call back into the cache.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a live value and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var gone []evicted[K, V]
	defer func() { c.notify(gone) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if c.expired(entry) {
		gone = append(gone, c.removeElement(elem))
		return zero, false
	}
	c.eviction.MoveToFront(elem)
	return entry.value, true
}

// Put adds or updates a value and restarts its expiry.
// Returns the previous live value and whether it existed.
func (c *LRUCache[K, V]) Put(key K, value V) (V, bool) {
	var gone []evicted[K, V]
	defer func() { c.notify(gone) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		old, live := entry.value, !c.expired(entry)
		entry.value = value
		entry.expiresAt = c.deadline()
		if !live {
			return zero, false
		}
		return old, true
	}

	elem := c.eviction.PushFront(&lruEntry[K, V]{key: key, value: value, expiresAt: c.deadline()})
	c.items[key] = elem

	if c.eviction.Len() > c.capacity {
		gone = append(gone, c.removeElement(c.eviction.Back()))
	}
	return zero, false
}

// Touch restarts the expiry of a live item. It reports whether the item exists.
func (c *LRUCache[K, V]) Touch(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if c.expired(entry) {
		return false
	}
	entry.expiresAt = c.deadline()
	c.eviction.MoveToFront(elem)
	return true
}

// Remove removes an item. Returns the removed value and whether it existed.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	var gone []evicted[K, V]
	defer func() { c.notify(gone) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := c.removeElement(elem)
		gone = append(gone, e)
		return e.value, true
	}

	var zero V
	return zero, false
}

// Purge drops every expired item and returns how many were dropped.
func (c *LRUCache[K, V]) Purge() int {
	var gone []evicted[K, V]
	defer func() { c.notify(gone) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl == 0 {
		return 0
	}
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*lruEntry[K, V])) {
			gone = append(gone, c.removeElement(elem))
		}
		elem = prev
	}
	return len(gone)
}

// Len returns the number of stored items, including expired ones not yet purged.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Clear removes all items.
func (c *LRUCache[K, V]) Clear() {
	var gone []evicted[K, V]
	defer func() { c.notify(gone) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, elem := range c.items {
		entry := elem.Value.(*lruEntry[K, V])
		gone = append(gone, evicted[K, V]{key: entry.key, value: entry.value})
	}
	c.items = make(map[K]*list.Element)
	c.eviction.Init()
}

// Must be called with lock held.
func (c *LRUCache[K, V]) removeElement(elem *list.Element) evicted[K, V] {
	c.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
	return evicted[K, V]{key: entry.key, value: entry.value}
}

// Must be called with lock held.
func (c *LRUCache[K, V]) expired(e *lruEntry[K, V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// Must be called with lock held.
func (c *LRUCache[K, V]) deadline() time.Time {
	if c.ttl == 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

func (c *LRUCache[K, V]) notify(gone []evicted[K, V]) {
	if len(gone) == 0 {
		return
	}
	c.mu.Lock()
	fn := c.onEvict
	c.mu.Unlock()
	if fn == nil {
		return
	}
	for _, e := range gone {
		fn(e.key, e.value)
	}
}
