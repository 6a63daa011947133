// Package blobstore provides the page stores behind the buffer pool.
//
// A BlobStore holds named byte blobs. Dense pages are built by appending row
// segments one line at a time, so every store supports Append in addition to
// whole-blob Put.
//
// # Built-in Implementations
//
//   - LocalStore: page files in a local directory (append via O_APPEND, reads via mmap)
//   - MemoryStore: in-memory store for tests
//   - CachingStore: chunk cache in front of any store
//   - CompressedStore: LZ4 or Zstd compression at rest for remote stores
//   - minio.Store, s3.Store: S3-compatible object storage
//   - badger.Store: embedded key-value storage
//
// Object stores have no native append. Their Append reads, extends and
// rewrites the object, which is fine for page-sized blobs.
package blobstore
