// Package resource governs the memory held by materialized page frames and
// the throughput of page writes.
//
//   - Memory: fail-fast accounting backed by a weighted semaphore. The buffer
//     pool reserves a frame's decoded size on first pin and releases it when
//     the last lease on the frame is released.
//   - IO: a token bucket that page write-back and row appends wait on, so a
//     large blockification cannot saturate a shared disk or object store.
//
// A nil *Controller is valid and imposes no limits.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   4 << 20,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
package resource
