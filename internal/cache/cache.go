package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a fixed capacity.
// When an insertion exceeds the capacity the least recently used entry is
// evicted and handed to the OnEvict callback, which is how cached GPU
// textures get released.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   lruList[K, V]
	limit   int
	onEvict func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithOnEvict sets a callback that receives every entry leaving the cache,
// whether evicted, replaced, deleted or cleared. It runs after the cache
// lock is released, so it may call back into the cache.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a cache holding at most limit entries.
// A limit of 0 means unlimited.
func New[K comparable, V any](limit int, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		limit:   limit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(e)
	return e.value, true
}

// Set stores a value. A replaced value and any evicted entries are passed
// to OnEvict.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var gone []*entry[K, V]
	if e, ok := c.entries[key]; ok {
		gone = append(gone, &entry[K, V]{key: key, value: e.value})
		e.value = value
		c.order.moveToFront(e)
	} else {
		gone = c.insert(key, value)
	}
	c.mu.Unlock()

	c.notify(gone)
}

// Clear removes all entries, passing each to OnEvict.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	gone := make([]*entry[K, V], 0, len(c.entries))
	for e := c.order.back(); e != nil; e = e.prev {
		gone = append(gone, e)
	}
	c.entries = make(map[K]*entry[K, V])
	c.order = lruList[K, V]{}
	c.mu.Unlock()

	c.notify(gone)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// insert adds a new entry and evicts from the back while over the limit.
// It returns the evicted entries. Caller must hold c.mu.
func (c *Cache[K, V]) insert(key K, value V) []*entry[K, V] {
	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.order.pushFront(e)

	var gone []*entry[K, V]
	for c.limit > 0 && len(c.entries) > c.limit {
		old := c.order.back()
		c.order.remove(old)
		delete(c.entries, old.key)
		c.evictions++
		gone = append(gone, old)
	}
	return gone
}

func (c *Cache[K, V]) notify(gone []*entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range gone {
		c.onEvict(e.key, e.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit (0 = unlimited).
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when there were no lookups.
	HitRate float64
	// Evictions is the number of entries dropped for capacity.
	Evictions uint64
}
