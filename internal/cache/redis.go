package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces chunk keys in a shared Redis.
const DefaultRedisPrefix = "blockmat:chunk:"

// RedisPrefix returns the key prefix for namespace. Page stores sharing one
// Redis must use distinct namespaces, since blob names alone do not identify
// the store.
func RedisPrefix(namespace string) string {
	if namespace == "" {
		return DefaultRedisPrefix
	}
	return DefaultRedisPrefix + namespace + ":"
}

// RedisBlockCache stores chunks in Redis with a TTL. Errors degrade to misses:
// the page store behind the cache stays the source of truth.
type RedisBlockCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisBlockCache wraps client. A zero ttl keeps entries until evicted by Redis.
func NewRedisBlockCache(client redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) *RedisBlockCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisBlockCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get returns a cached chunk.
func (c *RedisBlockCache) Get(ctx context.Context, key CacheKey) ([]byte, bool) {
	b, err := c.client.Get(ctx, c.encodeKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "redis cache get failed", "path", key.Path, "offset", key.Offset, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return b, true
}

// Set caches a chunk and records its key in the index of its blob.
func (c *RedisBlockCache) Set(ctx context.Context, key CacheKey, b []byte) {
	k, idx := c.encodeKey(key), c.indexKey(key.Path)
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, b, c.ttl)
		pipe.SAdd(ctx, idx, k)
		if c.ttl > 0 {
			pipe.Expire(ctx, idx, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "redis cache set failed", "path", key.Path, "offset", key.Offset, "error", err)
	}
}

// InvalidateBlob deletes the indexed chunks of blob name. Keys added to the
// index meanwhile stay indexed.
func (c *RedisBlockCache) InvalidateBlob(ctx context.Context, name string) {
	idx := c.indexKey(name)
	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "redis cache index read failed", "path", name, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, idx, members...)
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "redis cache invalidate failed", "path", name, "keys", len(keys), "error", err)
	}
}

// Invalidate scans the cache namespace and deletes matching chunks. Use
// InvalidateBlob for a single blob.
func (c *RedisBlockCache) Invalidate(predicate func(key CacheKey) bool) {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 256).Iterator()
	var doomed []string
	for iter.Next(ctx) {
		k := iter.Val()
		key, ok := c.decodeKey(k)
		if ok && predicate(key) {
			doomed = append(doomed, k)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("redis cache scan failed", "error", err)
		return
	}
	if len(doomed) == 0 {
		return
	}
	if err := c.client.Del(ctx, doomed...).Err(); err != nil {
		c.logger.Warn("redis cache invalidate failed", "keys", len(doomed), "error", err)
	}
}

// Close closes the Redis client.
func (c *RedisBlockCache) Close() error {
	return c.client.Close()
}

func (c *RedisBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// encodeKey renders "<prefix><kind>:<offset>:<path>". The path goes last since
// it may itself contain colons.
func (c *RedisBlockCache) encodeKey(key CacheKey) string {
	return fmt.Sprintf("%s%d:%d:%s", c.prefix, key.Kind, key.Offset, key.Path)
}

// indexKey names the set of chunk keys of one blob. "idx" never parses as a
// kind, so index keys are skipped by Invalidate.
func (c *RedisBlockCache) indexKey(name string) string {
	return c.prefix + "idx:" + name
}

func (c *RedisBlockCache) decodeKey(s string) (CacheKey, bool) {
	rest, ok := strings.CutPrefix(s, c.prefix)
	if !ok {
		return CacheKey{}, false
	}
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return CacheKey{}, false
	}
	kind, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return CacheKey{}, false
	}
	off, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return CacheKey{}, false
	}
	return CacheKey{Kind: CacheKind(kind), Offset: off, Path: parts[2]}, true
}
