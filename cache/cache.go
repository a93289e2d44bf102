// Package cache provides a small bounded cache for derived render assets.
//
// Layers use it to keep expensive per-frame derivations (blurred frames,
// mask bounding boxes, pre-scaled textures) across frames while the
// configuration that produced them is unchanged. Eviction is by insertion
// age: once the cache is full, inserting a new key removes the single
// oldest-inserted entry. Updating an existing key does not refresh its age.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the capacity used when a non-positive value is given.
// Fifty entries is enough for every derived-asset key a layer produces in
// practice while keeping worst-case memory bounded.
const DefaultCapacity = 50

// Stats holds cache counters. All counters are cumulative since creation
// (or the last Reset) and are safe to read concurrently.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Bounded is a thread-safe cache with insertion-order eviction.
//
// Unlike an LRU, reads never reorder entries: the entry that has been in
// the cache longest is always the one evicted. This matches how layer
// caches are used — a key is either still valid for the current
// configuration or it is dead weight, and recency of access says nothing
// about validity.
type Bounded[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]V
	order    []K // insertion order, oldest first
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a bounded cache holding at most capacity entries.
// If capacity <= 0, DefaultCapacity is used.
func New[K comparable, V any](capacity int) *Bounded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bounded[K, V]{
		entries:  make(map[K]V, capacity),
		order:    make([]K, 0, capacity),
		capacity: capacity,
	}
}

// Get retrieves a cached value by key.
// Returns (value, true) if found, (zero, false) otherwise.
func (c *Bounded[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	v, ok := c.entries[key]
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
		return v, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores a value. Inserting a new key at capacity evicts the
// oldest-inserted entry; overwriting an existing key keeps its age.
func (c *Bounded[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// GetOrCreate returns the cached value for key, or constructs it with
// create, stores it, and returns it. The create function runs with the
// cache lock held so concurrent callers never construct the same value
// twice; keep it fast.
func (c *Bounded[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)

	v := create()
	c.setLocked(key, v)
	return v
}

// setLocked inserts or overwrites an entry. Caller holds c.mu.
func (c *Bounded[K, V]) setLocked(key K, value V) {
	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		copy(c.order, c.order[1:])
		c.order = c.order[:len(c.order)-1]
		delete(c.entries, oldest)
		c.evictions.Add(1)
	}

	c.entries[key] = value
	c.order = append(c.order, key)
}

// Delete removes an entry. Returns true if the entry existed.
func (c *Bounded[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all entries. Counters are not reset.
func (c *Bounded[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.order = c.order[:0]
}

// Len returns the number of cached entries.
func (c *Bounded[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Bounded[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the cache counters.
func (c *Bounded[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
