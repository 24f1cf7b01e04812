package commentary

import (
	"sync"
	"time"
)

// TTLCache is a thread-safe cache whose entries expire individually.
type TTLCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	ttl  time.Duration
	now  func() time.Time
}

type entry[V any] struct {
	value   V
	expires time.Time
}

// NewTTLCache creates an empty cache. A non-positive ttl disables caching.
func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]entry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get retrieves a value that has not yet expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || !c.now().Before(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value, replacing any previous entry for key. Expired entries
// are swept on write.
func (c *TTLCache[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.data {
		if !now.Before(e.expires) {
			delete(c.data, k)
		}
	}
	c.data[key] = entry[V]{value: value, expires: now.Add(c.ttl)}
}

// Invalidate clears all cached data.
func (c *TTLCache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]entry[V])
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
