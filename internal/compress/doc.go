// Package compress implements the self-describing frame format used to store
// pages compressed at rest in remote blob stores.
//
// A frame is
//
//	[Algorithm uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
//
// with little-endian sizes. CompressedSize == 0 marks a frame stored raw
// because compression did not pay off.
package compress
