// Package bufferpool materializes matrix pages from a page store.
//
// Pages are named "<matrix>_Page<id>". Blockifiers build them with AppendRow
// (dense row segments) or WritePage (whole pages). Readers and transposers
// check pages out with Acquire and must Release every Lease.
//
// A Lease is a handle to a ref-counted frame. Acquiring an id that is already
// pinned returns a new Lease on the same frame, so all live leases of a page
// alias one in-memory page; a mutation through one is visible through all.
// The frame is dropped, and its memory returned to the resource controller,
// when the last lease is released. Changes reach the store only via WriteBack.
//
// The pool tracks which block ids of each matrix have been written in a
// roaring bitmap. Acquiring an untracked id fails with ErrMissingBlock without
// touching the store.
package bufferpool
