// Package layout plans how a square matrix is cut into pages.
//
// Plan reads a source twice: once for the first line, to count columns, and
// once over the full N×N grid, to count zeros and validate the shape. The zero
// fraction decides between the dense grid layout (M×M sub-blocks) and the sparse
// triplet layout (C triplets per page). Both capacities derive from the physical
// page size only.
package layout
