package page

import (
	"errors"
	"fmt"
)

// ErrCorrupt is returned when a page image cannot be decoded.
var ErrCorrupt = errors.New("corrupt page")

// Kind identifies the physical layout of a page.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDense
	KindSparse
)

func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Page is a materialized block.
type Page interface {
	Kind() Kind
	// Len returns the number of units (row segments or triplets) on the page.
	Len() int
	// Encode returns the on-disk image of the page.
	Encode() []byte
	// SizeBytes estimates the in-memory footprint of the page.
	SizeBytes() int64
}

// Decode materializes a page image of the given kind.
func Decode(kind Kind, data []byte) (Page, error) {
	switch kind {
	case KindDense:
		return DecodeDense(data)
	case KindSparse:
		return DecodeSparse(data)
	default:
		return nil, fmt.Errorf("%w: unknown page kind %d", ErrCorrupt, kind)
	}
}
