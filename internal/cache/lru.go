package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/blockmat/internal/resource"
)

// LRUBlockCache keeps recently read page chunks in process memory, up to
// capacity bytes. The least recently read chunk is dropped first.
type LRUBlockCache struct {
	mu       sync.Mutex
	capacity int64
	used     int64
	chunks   map[CacheKey]*list.Element
	recency  *list.List // front is most recent; values are *chunk
	rc       *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type chunk struct {
	key  CacheKey
	data []byte
}

// NewLRUBlockCache returns an empty cache of capacity bytes. Cached bytes are
// charged to rc, which may be nil.
func NewLRUBlockCache(capacity int64, rc *resource.Controller) *LRUBlockCache {
	return &LRUBlockCache{
		capacity: capacity,
		chunks:   make(map[CacheKey]*list.Element),
		recency:  list.New(),
		rc:       rc,
	}
}

// Get returns a cached chunk and marks it most recent.
func (c *LRUBlockCache) Get(_ context.Context, key CacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.chunks[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.recency.MoveToFront(el)
	return el.Value.(*chunk).data, true
}

// Set caches a chunk. Chunks larger than the capacity, or refused by the
// memory budget, are not cached.
func (c *LRUBlockCache) Set(_ context.Context, key CacheKey, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.chunks[key]; ok {
		c.replace(el, b)
		return
	}

	n := int64(len(b))
	if n > c.capacity {
		return
	}
	// Drop old chunks first: their bytes go back to the shared budget.
	c.shrinkTo(c.capacity - n)
	if c.rc.AcquireMemory(n) != nil {
		return
	}
	c.chunks[key] = c.recency.PushFront(&chunk{key: key, data: b})
	c.used += n
}

// replace swaps the data of a cached chunk. A tail chunk grows when its page
// was appended to.
func (c *LRUBlockCache) replace(el *list.Element, b []byte) {
	ch := el.Value.(*chunk)
	c.recency.MoveToFront(el)
	delta := int64(len(b)) - int64(len(ch.data))
	switch {
	case delta > 0:
		if c.rc.AcquireMemory(delta) != nil {
			return
		}
	case delta < 0:
		c.rc.ReleaseMemory(-delta)
	}
	c.used += delta
	ch.data = b
	c.shrinkTo(c.capacity)
}

// Invalidate drops every chunk whose key matches predicate.
func (c *LRUBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.chunks {
		if predicate(key) {
			c.drop(el)
		}
	}
}

// InvalidateBlob drops every chunk of page name.
func (c *LRUBlockCache) InvalidateBlob(_ context.Context, name string) {
	c.Invalidate(PathPredicate(name))
}

// Close drops all chunks and returns their memory to the controller.
func (c *LRUBlockCache) Close() error {
	c.Invalidate(func(CacheKey) bool { return true })
	return nil
}

func (c *LRUBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the cached bytes.
func (c *LRUBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len returns the number of cached chunks.
func (c *LRUBlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

func (c *LRUBlockCache) shrinkTo(limit int64) {
	for c.used > limit {
		el := c.recency.Back()
		if el == nil {
			return
		}
		c.drop(el)
	}
}

func (c *LRUBlockCache) drop(el *list.Element) {
	ch := c.recency.Remove(el).(*chunk)
	delete(c.chunks, ch.key)
	n := int64(len(ch.data))
	c.used -= n
	c.rc.ReleaseMemory(n)
}
