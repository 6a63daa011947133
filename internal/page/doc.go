// Package page implements the two physical page layouts of a blocked matrix.
//
// A Dense page holds an up-to-M×M sub-grid of a matrix as row segments. It is
// stored as plain text: one row segment per line, values separated by a single
// space. Row segments are appended line by line while a matrix is blockified.
//
// A Sparse page holds up to C (row, col, value) triplets in row-major order. It
// is stored as fixed-width records of three little-endian int32 values.
//
// Pages know nothing about where they live; the buffer pool owns naming,
// materialization and write-back.
package page
