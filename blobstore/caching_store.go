package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/blockmat/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and adds chunk-level read caching.
// Writes pass through and invalidate the cached chunks of the blob.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	chunkSize int64
}

// NewCachingStore creates a new CachingStore.
// chunkSize defaults to 4KB if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, chunkSize int64) *CachingStore {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		chunkSize: chunkSize,
	}
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		chunkSize: s.chunkSize,
	}, nil
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.InvalidateBlob(ctx, name)
	return s.inner.Put(ctx, name, data)
}

// Append invalidates the blob's chunks: the tail chunk may have grown.
func (s *CachingStore) Append(ctx context.Context, name string, data []byte) error {
	s.cache.InvalidateBlob(ctx, name)
	return s.inner.Append(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.InvalidateBlob(ctx, name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// CachingBlob wraps a Blob and uses the chunk cache for reads.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	chunkSize int64
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) key(chunk int64) cache.CacheKey {
	return cache.CacheKey{
		Kind:   cache.CacheKindBlob,
		Path:   b.name,
		Offset: uint64(chunk),
	}
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := p
	if off+int64(len(p)) > size {
		want = p[:size-off]
	}

	startChunk := off / b.chunkSize
	endChunk := (off + int64(len(want)) - 1) / b.chunkSize

	if err := b.fillCache(ctx, startChunk, endChunk); err != nil {
		return 0, err
	}

	total := 0
	for chunk := startChunk; chunk <= endChunk; chunk++ {
		chunkStart := chunk * b.chunkSize
		lo := max(chunkStart, off)
		hi := min(chunkStart+b.chunkSize, off+int64(len(want)))
		if hi <= lo {
			continue
		}

		data, err := b.fetchChunk(ctx, chunk)
		if err != nil {
			return total, err
		}
		src := lo - chunkStart
		if src >= int64(len(data)) {
			break
		}
		total += copy(want[lo-off:hi-off], data[src:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fillCache loads the missing chunks in [startChunk, endChunk], fetching
// contiguous runs of missing chunks with one backend read each.
func (b *CachingBlob) fillCache(ctx context.Context, startChunk, endChunk int64) error {
	type run struct{ start, count int64 }
	var missing []run

	cur := run{start: -1}
	for chunk := startChunk; chunk <= endChunk; chunk++ {
		if _, ok := b.cache.Get(ctx, b.key(chunk)); ok {
			if cur.start != -1 {
				missing = append(missing, cur)
				cur = run{start: -1}
			}
			continue
		}
		if cur.start == -1 {
			cur = run{start: chunk, count: 1}
		} else {
			cur.count++
		}
	}
	if cur.start != -1 {
		missing = append(missing, cur)
	}
	if len(missing) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.chunkSize
			byteSize := min(r.count*b.chunkSize, b.Size()-byteStart)
			if byteSize <= 0 {
				return nil
			}

			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			valid := buf[:n]

			for i := int64(0); i < r.count; i++ {
				lo := i * b.chunkSize
				if lo >= int64(len(valid)) {
					break
				}
				hi := min(lo+b.chunkSize, int64(len(valid)))
				// Copy so the run buffer is not pinned by the cache.
				chunk := make([]byte, hi-lo)
				copy(chunk, valid[lo:hi])
				b.cache.Set(gctx, b.key(r.start+i), chunk)
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *CachingBlob) fetchChunk(ctx context.Context, chunk int64) ([]byte, error) {
	if data, ok := b.cache.Get(ctx, b.key(chunk)); ok {
		return data, nil
	}

	// Evicted between fill and copy, or the cache refused the entry.
	buf := make([]byte, b.chunkSize)
	n, err := b.inner.ReadAt(ctx, buf, chunk*b.chunkSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	data := buf[:n]
	if n > 0 {
		b.cache.Set(ctx, b.key(chunk), data)
	}
	return data, nil
}
