package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockmat/internal/resource"
)

func key(path string, off uint64) CacheKey {
	return CacheKey{Kind: CacheKindBlob, Path: path, Offset: off}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRUBlockCache(10, nil)
	ctx := context.Background()

	c.Set(ctx, key("A_Page0", 0), make([]byte, 4))
	c.Set(ctx, key("A_Page0", 1), make([]byte, 4))
	_, ok := c.Get(ctx, key("A_Page0", 0)) // promote chunk 0
	require.True(t, ok)

	c.Set(ctx, key("A_Page1", 0), make([]byte, 4))

	_, ok = c.Get(ctx, key("A_Page0", 1))
	assert.False(t, ok, "least recently used chunk should be evicted")
	_, ok = c.Get(ctx, key("A_Page0", 0))
	assert.True(t, ok)
	assert.Equal(t, int64(8), c.Size())
	assert.Equal(t, 2, c.Len())
}

func TestLRU_EdgeCases(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc)
	k := key("A_Page0", 0)

	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "chunk larger than capacity is not cached")

	c.Set(ctx, k, make([]byte, 10))
	c.Set(ctx, k, make([]byte, 20))
	assert.Equal(t, int64(20), c.Size())
	c.Set(ctx, k, make([]byte, 5))
	assert.Equal(t, int64(5), c.Size())
	assert.Equal(t, int64(5), rc.MemoryUsage())

	rc2 := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c2 := NewLRUBlockCache(50, rc2)
	c2.Set(ctx, k, make([]byte, 8))
	c2.Set(ctx, k, make([]byte, 12))
	val, ok := c2.Get(ctx, k)
	require.True(t, ok)
	assert.Len(t, val, 8, "growth refused by the controller keeps the old value")

	require.NoError(t, c2.Close())
	assert.Zero(t, rc2.MemoryUsage())
}

func TestLRU_InvalidatePath(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()
	c.Set(ctx, key("A_Page0", 0), []byte("a"))
	c.Set(ctx, key("A_Page0", 1), []byte("b"))
	c.Set(ctx, key("A_Page1", 0), []byte("c"))

	c.InvalidateBlob(ctx, "A_Page0")

	_, ok := c.Get(ctx, key("A_Page0", 1))
	assert.False(t, ok)
	_, ok = c.Get(ctx, key("A_Page1", 0))
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}
