package layout

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/blockmat/internal/fs"
	"github.com/hupe1980/blockmat/internal/source"
)

const (
	// IntSize is the size of one stored integer in bytes.
	IntSize = 4

	// TripletFields is the number of integers per sparse triplet.
	TripletFields = 3
)

var (
	// ErrEmptySource is returned when the source has no data.
	ErrEmptySource = errors.New("empty source")

	// ErrNotSquare is returned when the source does not hold N rows of N cells.
	ErrNotSquare = errors.New("matrix is not square")

	// ErrInvalidParams is returned for non-positive page sizes or an out-of-range threshold.
	ErrInvalidParams = errors.New("invalid layout parameters")
)

// Params are the fixed inputs of the planner.
type Params struct {
	// BlockSizeKB is the physical page size in KiB.
	BlockSizeKB int
	// PageBytes overrides BlockSizeKB when positive.
	PageBytes int
	// SparseThreshold is the zero fraction at or above which a matrix is sparse.
	SparseThreshold float64
}

// Validate checks that the parameters describe a usable page geometry.
func (p Params) Validate() error {
	if p.BlockSizeKB <= 0 && p.PageBytes <= 0 {
		return fmt.Errorf("%w: block size %d KiB", ErrInvalidParams, p.BlockSizeKB)
	}
	if p.SparseThreshold <= 0 || p.SparseThreshold > 1 {
		return fmt.Errorf("%w: sparse threshold %v", ErrInvalidParams, p.SparseThreshold)
	}
	return nil
}

// BlockBytes returns the physical page size in bytes.
func (p Params) BlockBytes() int {
	if p.PageBytes > 0 {
		return p.PageBytes
	}
	return p.BlockSizeKB * 1024
}

// DenseBlockWidth returns M, the side of a square dense sub-block.
func (p Params) DenseBlockWidth() int {
	return int(math.Sqrt(float64(p.BlockBytes() / IntSize)))
}

// SparseCapacity returns C, the number of triplets per sparse page.
func (p Params) SparseCapacity() int {
	return p.BlockBytes() / (IntSize * TripletFields)
}

// Shape is the occupied extent of one block. For sparse blocks Rows is the
// triplet count and Cols is always 3.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Layout is the geometry of a blocked matrix.
type Layout struct {
	Columns       int     `json:"columns"`
	Sparse        bool    `json:"sparse"`
	UnitsPerBlock int     `json:"units_per_block"`
	BlocksPerRow  int     `json:"blocks_per_row,omitempty"`
	BlockCount    int     `json:"block_count"`
	Zeros         int     `json:"zeros"`
	Shapes        []Shape `json:"shapes"`
}

// Rows returns the row count, which always equals the column count.
func (l *Layout) Rows() int { return l.Columns }

// Cells returns N².
func (l *Layout) Cells() int { return l.Columns * l.Columns }

// NonZeros returns the number of nonzero cells.
func (l *Layout) NonZeros() int { return l.Cells() - l.Zeros }

// ZeroFraction returns zeros / N².
func (l *Layout) ZeroFraction() float64 {
	if l.Columns == 0 {
		return 0
	}
	return float64(l.Zeros) / float64(l.Cells())
}

// BlockID returns the dense block id at grid position (blockRow, blockCol).
func (l *Layout) BlockID(blockRow, blockCol int) int {
	return blockRow*l.BlocksPerRow + blockCol
}

// SegmentWidth returns the number of columns covered by dense block column blockCol.
func (l *Layout) SegmentWidth(blockCol int) int {
	if blockCol == l.BlocksPerRow-1 {
		return l.Columns - l.UnitsPerBlock*(l.BlocksPerRow-1)
	}
	return l.UnitsPerBlock
}

// LastInGridRow reports whether dense block id sits in the last column of its grid row.
func (l *Layout) LastInGridRow(id int) bool {
	return (id+1)%l.BlocksPerRow == 0
}

// Plan computes the layout of the source at path.
// The returned Shapes are zeroed, ready for a blockifier to fill.
func Plan(fsys fs.FileSystem, path string, p Params) (*Layout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	columns, err := countColumns(fsys, path)
	if err != nil {
		return nil, err
	}
	if columns == 0 {
		return nil, ErrEmptySource
	}

	zeros, err := countZeros(fsys, path, columns)
	if err != nil {
		return nil, err
	}

	l := &Layout{Columns: columns, Zeros: zeros}
	l.Sparse = l.ZeroFraction() >= p.SparseThreshold

	if l.Sparse {
		l.UnitsPerBlock = p.SparseCapacity()
		l.BlockCount = ceilDiv(l.NonZeros(), l.UnitsPerBlock)
	} else {
		l.UnitsPerBlock = p.DenseBlockWidth()
		l.BlocksPerRow = ceilDiv(columns, l.UnitsPerBlock)
		l.BlockCount = l.BlocksPerRow * l.BlocksPerRow
	}
	if l.UnitsPerBlock <= 0 {
		return nil, fmt.Errorf("%w: %d byte pages hold no units", ErrInvalidParams, p.BlockBytes())
	}
	l.Shapes = make([]Shape, l.BlockCount)

	return l, nil
}

func countColumns(fsys fs.FileSystem, path string) (int, error) {
	f, err := fs.Open(fsys, path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return source.CountColumns(f)
}

// countZeros walks the declared N×N grid, validating that it is square.
func countZeros(fsys fs.FileSystem, path string, columns int) (int, error) {
	f, err := fs.Open(fsys, path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := source.NewScanner(f, columns)
	row := make([]int, columns)
	zeros := 0
	for r := 0; r < columns; r++ {
		if err := sc.Next(row); err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("%w: %d columns but only %d rows", ErrNotSquare, columns, r)
			}
			if errors.Is(err, source.ErrShape) {
				return 0, fmt.Errorf("%w: %w", ErrNotSquare, err)
			}
			return 0, err
		}
		for _, v := range row {
			if v == 0 {
				zeros++
			}
		}
	}

	extra, err := sc.Trailing()
	if err != nil {
		return 0, err
	}
	if extra {
		return 0, fmt.Errorf("%w: more than %d rows", ErrNotSquare, columns)
	}
	return zeros, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
