// Package cache provides a bounded in-memory key/value store with per-entry
// expiration. It is a view in front of persistent storage, never a source of
// truth: entries may be stale for at most their TTL and the cache must not be
// used for uniqueness checks.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
	timer   *time.Timer
	elem    *list.Element
}

// Cache is a thread-safe map with a maximum entry count and a fixed TTL.
// When full, Set evicts the oldest-inserted entry (insertion order, not
// access recency). Expired entries are removed by a scheduled timer; Get
// additionally checks the deadline so a not-yet-fired timer cannot leak a
// stale value.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[K]*entry[K, V]
	order   *list.List // of K, oldest at front
}

// New creates a cache holding at most maxSize entries, each expiring ttl
// after its last Set.
func New[K comparable, V any](maxSize int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[K]*entry[K, V]),
		order:   list.New(),
	}
}

// Set inserts or replaces the entry for key and restarts its expiration
// timer. Replacing keeps the key's insertion position.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.timer.Stop()
		e.value = value
		e.expires = time.Now().Add(c.ttl)
		e.timer = c.scheduleRemoval(key, e)
		return
	}

	if len(c.entries) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			c.remove(front.Value.(K))
		}
	}

	e := &entry[K, V]{
		key:     key,
		value:   value,
		expires: time.Now().Add(c.ttl),
	}
	e.elem = c.order.PushBack(key)
	e.timer = c.scheduleRemoval(key, e)
	c.entries[key] = e
}

// Get returns the value for key if present and not expired. It never
// extends the TTL.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Has reports whether key is present and not expired.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes the entry for key and cancels its pending expiration.
// Deleting an absent key is a no-op.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// Clear removes all entries and cancels all pending expirations.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.timer.Stop()
	}
	c.entries = make(map[K]*entry[K, V])
	c.order.Init()
}

// Len returns the number of entries currently held, expired-but-unswept
// entries included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove deletes key under c.mu.
func (c *Cache[K, V]) remove(key K) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.timer.Stop()
	c.order.Remove(e.elem)
	delete(c.entries, key)
}

// scheduleRemoval arms the timed removal for an entry. The timer callback
// re-checks identity and the deadline: a Set that raced the firing timer
// either replaced the entry struct or pushed its deadline forward, and in
// both cases the fresh entry must survive and be swept by its own timer.
func (c *Cache[K, V]) scheduleRemoval(key K, e *entry[K, V]) *time.Timer {
	return time.AfterFunc(c.ttl, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		cur, ok := c.entries[key]
		if !ok || cur != e || time.Now().Before(cur.expires) {
			return
		}
		c.order.Remove(cur.elem)
		delete(c.entries, key)
	})
}
