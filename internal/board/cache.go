package board

import (
	"cmp"
	"slices"
	"sync"
)

// Cache maps thread id to the single live Thread instance for that id. It is
// owned by one Board and safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	threads map[int64]*Thread
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{threads: make(map[int64]*Thread)}
}

// Lookup returns the cached thread for id.
func (c *Cache) Lookup(id int64) (*Thread, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.threads[id]
	return t, ok
}

// InsertIfAbsent returns the cached thread for id, flagging it stale, or
// stores and returns factory() when id is not cached. Listing data for a
// cached id is provisional and never replaces the cached instance.
func (c *Cache) InsertIfAbsent(id int64, factory func() *Thread) (*Thread, bool) {
	c.mu.Lock()
	existing, ok := c.threads[id]
	if !ok {
		t := factory()
		c.threads[id] = t
		c.mu.Unlock()
		return t, true
	}
	c.mu.Unlock()

	// Marked outside the cache lock: an in-flight update holds the thread
	// and may need the cache to evict itself.
	existing.markStale()
	return existing, false
}

// LoadOrStore returns the cached thread for id when present, otherwise stores
// t. Unlike InsertIfAbsent it does not flag an existing entry.
func (c *Cache) LoadOrStore(id int64, t *Thread) (*Thread, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.threads[id]; ok {
		return existing, true
	}
	c.threads[id] = t
	return t, false
}

// Len returns the number of cached threads.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.threads)
}

// Threads returns the cached threads ordered by id.
func (c *Cache) Threads() []*Thread {
	c.mu.RLock()
	out := make([]*Thread, 0, len(c.threads))
	for _, t := range c.threads {
		out = append(out, t)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Thread) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.threads)
}

// evict removes id only while it still maps to t.
func (c *Cache) evict(id int64, t *Thread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.threads[id] == t {
		delete(c.threads, id)
	}
}

// reinsert puts a revived t back under id unless another instance claimed
// the id after t was evicted. The cached instance is returned; a different
// winner is flagged stale so it picks up the revival on its next update.
func (c *Cache) reinsert(id int64, t *Thread) *Thread {
	c.mu.Lock()
	existing, ok := c.threads[id]
	if !ok {
		c.threads[id] = t
	}
	c.mu.Unlock()

	if ok && existing != t {
		existing.markStale()
		return existing
	}
	return t
}
