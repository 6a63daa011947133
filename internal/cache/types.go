package cache

import "context"

// CacheKind is used to separate key spaces.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindBlob              // chunks of page-store blobs
)

// CacheKey identifies one chunk of one blob.
type CacheKey struct {
	Kind CacheKind
	// Path is the blob name, e.g. "A_Page3".
	Path string
	// Offset is the chunk index within the blob.
	Offset uint64
}

// BlockCache is a byte-oriented cache for blob chunks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached chunk. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a chunk. Callers must treat b as immutable afterwards.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// InvalidateBlob removes every chunk of blob name.
	InvalidateBlob(ctx context.Context, name string)
	// Close releases any resources.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

// PathPredicate matches every chunk of the named blob.
func PathPredicate(name string) func(CacheKey) bool {
	return func(key CacheKey) bool {
		return key.Kind == CacheKindBlob && key.Path == name
	}
}
