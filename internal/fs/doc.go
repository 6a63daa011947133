// Package fs abstracts the local filesystem used for matrix sources, canonical
// exports and local page files.
//
//   - [LocalFS]: production implementation over the os package
//   - [FaultyFS]: test wrapper that injects I/O failures by path pattern
//
// Operations carry no context.Context: local file operations are not
// interruptible at the syscall level. Remote page stores live in blobstore.
package fs
