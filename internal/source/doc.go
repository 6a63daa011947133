// Package source reads canonical matrix CSV sources cell by cell.
//
// A source is a comma-separated file of integers, one matrix row per line,
// with no header. Whitespace inside a token is ignored. Values must fit in a
// signed 32-bit integer, matching the fixed-width page formats.
package source
