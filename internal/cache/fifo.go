package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
}

// FIFO is a bounded map whose entries expire after a fixed time-to-live
// and are evicted oldest-first when capacity is reached.
//
// Design decision: Eviction is strictly by insertion order, not
// least-recently-used. A hot entry must still age out on schedule; the
// resolver relies on that to pick up DNS changes for hosts it hits
// constantly. Expiry is lazy: an expired entry occupies its slot until a
// lookup observes it, and no background sweeper runs.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[K]*list.Element
	order    list.List
	now      func() time.Time
}

// New returns a FIFO holding at most capacity entries, each living for
// ttl after insertion. A non-positive ttl disables expiry. It panics if
// capacity is not positive.
func New[K comparable, V any](capacity int, ttl time.Duration) *FIFO[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be positive")
	}
	return &FIFO[K, V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[K]*list.Element, capacity),
		now:      time.Now,
	}
}

// Set stores value under key. Re-setting an existing key replaces it as
// a fresh insertion. When the cache is full, the oldest-inserted entry
// is evicted first.
func (c *FIFO[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = c.order.PushBack(&entry[K, V]{
		key:      key,
		value:    value,
		storedAt: c.now(),
	})
}

// Get returns the live value stored under key. An entry past its
// time-to-live counts as absent and is removed on observation.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if c.expired(ent) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return zero, false
	}
	return ent.value, true
}

// Contains reports whether a live entry exists under key, removing it if
// it turns out to be expired.
func (c *FIFO[K, V]) Contains(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of occupied slots. Expired entries count until
// a lookup observes them.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the front of the insertion order.
// The caller must hold c.mu.
func (c *FIFO[K, V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	c.order.Remove(front)
	delete(c.entries, front.Value.(*entry[K, V]).key)
}

// expired reports whether ent has outlived the time-to-live.
func (c *FIFO[K, V]) expired(ent *entry[K, V]) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(ent.storedAt) >= c.ttl
}
