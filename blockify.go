package blockmat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/blockmat/internal/fs"
	"github.com/hupe1980/blockmat/internal/layout"
	"github.com/hupe1980/blockmat/internal/page"
	"github.com/hupe1980/blockmat/internal/source"
)

// errSourceChanged is returned when the source no longer matches its layout
// between the planning pass and the blockify pass.
var errSourceChanged = errors.New("source changed during load")

// scanRows feeds every source row to fn in order.
func (m *Matrix) scanRows(ctx context.Context, n int, fn func(r int, row []int) error) error {
	f, err := fs.Open(m.env.fs, m.source)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := source.NewScanner(f, n)
	row := make([]int, n)
	for r := 0; r < n; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sc.Next(row); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: %d of %d rows", errSourceChanged, r, n)
			}
			return err
		}
		if err := fn(r, row); err != nil {
			return err
		}
	}
	return nil
}

// blockifyDense appends every row segment to its block. Rows arrive in order,
// so each block receives its rows in order.
func (m *Matrix) blockifyDense(ctx context.Context, l *layout.Layout) error {
	pool := m.env.pool
	return m.scanRows(ctx, l.Columns, func(r int, row []int) error {
		br := r / l.UnitsPerBlock
		for bc := 0; bc < l.BlocksPerRow; bc++ {
			lo, w := bc*l.UnitsPerBlock, l.SegmentWidth(bc)
			id := l.BlockID(br, bc)
			if err := pool.AppendRow(ctx, m.name, id, row[lo:lo+w]); err != nil {
				return err
			}
			s := &l.Shapes[id]
			s.Rows++
			s.Cols = w
		}
		return nil
	})
}

// blockifySparse collects nonzero cells in row-major order and writes a page
// every C triplets.
func (m *Matrix) blockifySparse(ctx context.Context, l *layout.Layout) error {
	pool := m.env.pool
	buf := make([]page.Triplet, 0, l.UnitsPerBlock)
	id := 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if id >= l.BlockCount {
			return errSourceChanged
		}
		if err := pool.WritePage(ctx, m.name, id, page.NewSparse(slices.Clone(buf))); err != nil {
			return err
		}
		l.Shapes[id] = layout.Shape{Rows: len(buf), Cols: layout.TripletFields}
		id++
		buf = buf[:0]
		return nil
	}

	err := m.scanRows(ctx, l.Columns, func(r int, row []int) error {
		for c, v := range row {
			if v == 0 {
				continue
			}
			buf = append(buf, page.Triplet{Row: r, Col: c, Value: v})
			if len(buf) == l.UnitsPerBlock {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	if id != l.BlockCount {
		return fmt.Errorf("%w: %d of %d blocks", errSourceChanged, id, l.BlockCount)
	}
	return nil
}
