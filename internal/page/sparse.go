package page

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// TripletSize is the encoded width of one triplet in bytes.
const TripletSize = 12

// Triplet is one nonzero cell of a sparse matrix.
type Triplet struct {
	Row   int
	Col   int
	Value int
}

// Compare orders triplets by (Row, Col).
func (t Triplet) Compare(o Triplet) int {
	switch {
	case t.Row != o.Row:
		return t.Row - o.Row
	default:
		return t.Col - o.Col
	}
}

// Sparse holds a batch of triplets.
type Sparse struct {
	triplets []Triplet
}

// NewSparse returns a page over triplets. The page takes ownership of the slice.
func NewSparse(triplets []Triplet) *Sparse {
	return &Sparse{triplets: triplets}
}

func (s *Sparse) Kind() Kind { return KindSparse }

func (s *Sparse) Len() int { return len(s.triplets) }

// At returns triplet i.
func (s *Sparse) At(i int) Triplet { return s.triplets[i] }

// Triplets returns the page contents. The slice aliases page storage.
func (s *Sparse) Triplets() []Triplet { return s.triplets }

func (s *Sparse) SizeBytes() int64 { return int64(len(s.triplets)) * 24 }

// Sorted reports whether the triplets are in strict scan order.
func (s *Sparse) Sorted() bool {
	for i := 1; i < len(s.triplets); i++ {
		if s.triplets[i-1].Compare(s.triplets[i]) >= 0 {
			return false
		}
	}
	return true
}

// Transpose swaps row and column of every triplet and restores scan order
// within the page. Order across pages is restored by Reconcile.
func (s *Sparse) Transpose() {
	for i := range s.triplets {
		t := &s.triplets[i]
		t.Row, t.Col = t.Col, t.Row
	}
	slices.SortFunc(s.triplets, Triplet.Compare)
}

// Reconcile redistributes the triplets of two individually sorted pages so
// that s keeps its size and holds the smallest entries of the union, and o
// holds the rest. Both pages remain sorted. It reports whether any triplet moved.
func (s *Sparse) Reconcile(o *Sparse) bool {
	n := len(s.triplets)
	if n == 0 || len(o.triplets) == 0 {
		return false
	}
	// Already partitioned.
	if s.triplets[n-1].Compare(o.triplets[0]) < 0 {
		return false
	}
	merged := make([]Triplet, 0, n+len(o.triplets))
	a, b := s.triplets, o.triplets
	for len(a) > 0 && len(b) > 0 {
		if a[0].Compare(b[0]) <= 0 {
			merged = append(merged, a[0])
			a = a[1:]
		} else {
			merged = append(merged, b[0])
			b = b[1:]
		}
	}
	merged = append(merged, a...)
	merged = append(merged, b...)
	copy(s.triplets, merged[:n])
	copy(o.triplets, merged[n:])
	return true
}

// Encode returns the fixed-width image of the page.
func (s *Sparse) Encode() []byte {
	return EncodeTriplets(s.triplets)
}

// EncodeTriplets returns the fixed-width image of triplets.
func EncodeTriplets(triplets []Triplet) []byte {
	buf := make([]byte, len(triplets)*TripletSize)
	for i, t := range triplets {
		rec := buf[i*TripletSize:]
		binary.LittleEndian.PutUint32(rec[0:], uint32(int32(t.Row)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(int32(t.Col)))
		binary.LittleEndian.PutUint32(rec[8:], uint32(int32(t.Value)))
	}
	return buf
}

// DecodeSparse parses a sparse page image.
func DecodeSparse(data []byte) (*Sparse, error) {
	if len(data)%TripletSize != 0 {
		return nil, fmt.Errorf("%w: sparse image of %d bytes is not a multiple of %d", ErrCorrupt, len(data), TripletSize)
	}
	triplets := make([]Triplet, len(data)/TripletSize)
	for i := range triplets {
		rec := data[i*TripletSize:]
		triplets[i] = Triplet{
			Row:   int(int32(binary.LittleEndian.Uint32(rec[0:]))),
			Col:   int(int32(binary.LittleEndian.Uint32(rec[4:]))),
			Value: int(int32(binary.LittleEndian.Uint32(rec[8:]))),
		}
	}
	return &Sparse{triplets: triplets}, nil
}
