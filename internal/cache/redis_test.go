package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBlockCache_KeyRoundTrip(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	c := NewRedisBlockCache(client, "", 0, nil)
	defer c.Close()

	k := CacheKey{Kind: CacheKindBlob, Path: "tenant:A_Page7", Offset: 3}
	encoded := c.encodeKey(k)
	assert.Equal(t, DefaultRedisPrefix+"1:3:tenant:A_Page7", encoded)

	got, ok := c.decodeKey(encoded)
	require.True(t, ok)
	assert.Equal(t, k, got)

	_, ok = c.decodeKey("other:1:3:x")
	assert.False(t, ok)
	_, ok = c.decodeKey(DefaultRedisPrefix + "x:3:y")
	assert.False(t, ok)
	_, ok = c.decodeKey(c.indexKey("A_Page7"))
	assert.False(t, ok)
}

func TestRedisPrefix(t *testing.T) {
	assert.Equal(t, DefaultRedisPrefix, RedisPrefix(""))
	assert.Equal(t, DefaultRedisPrefix+"local:/a:", RedisPrefix("local:/a"))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	a := NewRedisBlockCache(client, RedisPrefix("local:/a"), 0, nil)
	b := NewRedisBlockCache(client, RedisPrefix("local:/b"), 0, nil)

	k := CacheKey{Kind: CacheKindBlob, Path: "A_Page0"}
	assert.NotEqual(t, a.encodeKey(k), b.encodeKey(k))
	assert.NotEqual(t, a.indexKey("A_Page0"), b.indexKey("A_Page0"))
}

// redisClient connects to REDIS_ADDR (default localhost:6379) or skips.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBlockCache_SharedServer(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	run := fmt.Sprintf("test-%d", time.Now().UnixNano())
	a := NewRedisBlockCache(client, RedisPrefix(run+":a"), time.Minute, nil)
	b := NewRedisBlockCache(client, RedisPrefix(run+":b"), time.Minute, nil)
	t.Cleanup(func() {
		a.Invalidate(func(CacheKey) bool { return true })
		b.Invalidate(func(CacheKey) bool { return true })
		_ = client.Del(ctx, a.indexKey("A_Page0"), a.indexKey("A_Page1"), b.indexKey("A_Page0")).Err()
	})

	k0 := CacheKey{Kind: CacheKindBlob, Path: "A_Page0", Offset: 0}
	k1 := CacheKey{Kind: CacheKindBlob, Path: "A_Page0", Offset: 1}
	other := CacheKey{Kind: CacheKindBlob, Path: "A_Page1", Offset: 0}
	a.Set(ctx, k0, []byte("a0"))
	a.Set(ctx, k1, []byte("a1"))
	a.Set(ctx, other, []byte("a-other"))
	b.Set(ctx, k0, []byte("b0"))

	got, ok := a.Get(ctx, k0)
	require.True(t, ok)
	assert.Equal(t, "a0", string(got))
	got, ok = b.Get(ctx, k0)
	require.True(t, ok)
	assert.Equal(t, "b0", string(got))
	_, ok = b.Get(ctx, k1)
	assert.False(t, ok)

	a.InvalidateBlob(ctx, "A_Page0")

	_, ok = a.Get(ctx, k0)
	assert.False(t, ok)
	_, ok = a.Get(ctx, k1)
	assert.False(t, ok)
	got, ok = a.Get(ctx, other)
	require.True(t, ok)
	assert.Equal(t, "a-other", string(got))
	got, ok = b.Get(ctx, k0)
	require.True(t, ok)
	assert.Equal(t, "b0", string(got))

	members, err := client.SMembers(ctx, a.indexKey("A_Page0")).Result()
	require.NoError(t, err)
	assert.Empty(t, members)
}
