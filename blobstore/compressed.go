package blobstore

import (
	"context"
	"fmt"

	"github.com/hupe1980/blockmat/internal/compress"
)

// CompressedStore compresses blobs at rest in the inner store.
//
// Each blob is stored as one compress frame. Appends decompress, extend and
// recompress the whole blob, so wrap remote stores only: local page files stay
// in their plain formats.
type CompressedStore struct {
	inner BlobStore
	algo  compress.Algorithm
}

// NewCompressedStore wraps inner with the given algorithm.
func NewCompressedStore(inner BlobStore, algo compress.Algorithm) *CompressedStore {
	return &CompressedStore{inner: inner, algo: algo}
}

// Algorithm returns the algorithm used for new writes.
func (s *CompressedStore) Algorithm() compress.Algorithm { return s.algo }

func (s *CompressedStore) Open(ctx context.Context, name string) (Blob, error) {
	raw, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewBytesBlob(raw), nil
}

func (s *CompressedStore) load(ctx context.Context, name string) ([]byte, error) {
	framed, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	raw, err := compress.Decode(framed)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return raw, nil
}

func (s *CompressedStore) Put(ctx context.Context, name string, data []byte) error {
	framed, err := compress.Encode(s.algo, data)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, name, framed)
}

func (s *CompressedStore) Append(ctx context.Context, name string, data []byte) error {
	raw, err := s.load(ctx, name)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		raw = nil
	}
	return s.Put(ctx, name, append(raw, data...))
}

func (s *CompressedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

func (s *CompressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}
