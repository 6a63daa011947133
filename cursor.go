package blockmat

import (
	"context"
	"slices"

	"github.com/hupe1980/blockmat/internal/bufferpool"
	"github.com/hupe1980/blockmat/internal/layout"
	"github.com/hupe1980/blockmat/internal/page"
)

// Cursor walks a matrix in storage order.
//
// For a dense matrix each step yields one row segment, visiting the segments
// of global row 0 left to right, then row 1, and so on.
//
// For a sparse matrix each step yields one triplet, block by block in id order.
//
// At most one page is pinned at a time: the lease is released as soon as the
// cursor moves to another block. Repeated reads of a page within a grid row go
// back to the page store.
//
// A Cursor must be closed when abandoned before exhaustion.
type Cursor struct {
	m      *Matrix
	l      *layout.Layout
	block  int
	offset int
	done   bool
	lease  *bufferpool.Lease
	leased int
}

// Cursor returns a cursor at the first element of the matrix.
func (m *Matrix) Cursor() *Cursor {
	c := &Cursor{m: m, l: m.layout}
	if c.l == nil || c.l.BlockCount == 0 {
		c.done = true
	}
	return c
}

// Next returns the next element, or nil once the cursor is exhausted. Dense
// matrices yield row segments; sparse matrices yield [row, col, value].
// The returned slice is owned by the caller.
func (c *Cursor) Next(ctx context.Context) ([]int, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.l.Sparse {
		t, ok, err := c.NextTriplet(ctx)
		if err != nil || !ok {
			return nil, err
		}
		return []int{t.Row, t.Col, t.Value}, nil
	}
	return c.NextSegment(ctx)
}

// NextSegment returns the next dense row segment, or nil once exhausted.
func (c *Cursor) NextSegment(ctx context.Context) ([]int, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.done {
		return nil, nil
	}
	lease, err := c.pin(ctx, c.block)
	if err != nil {
		return nil, err
	}
	d := lease.Dense()
	if c.offset >= d.Len() {
		return nil, wrapErr("cursor", c.m.name, errSourceChanged)
	}
	seg := slices.Clone(d.Row(c.offset))
	c.advanceDense()
	if c.done || c.block != c.leased {
		c.unpin()
	}
	return seg, nil
}

func (c *Cursor) advanceDense() {
	l := c.l
	if !l.LastInGridRow(c.block) {
		c.block++
		return
	}
	if c.offset < l.Shapes[c.block].Rows-1 {
		c.block = c.block - l.BlocksPerRow + 1
		c.offset++
		return
	}
	if c.block == l.BlockCount-1 {
		c.done = true
		return
	}
	c.block++
	c.offset = 0
}

// NextTriplet returns the next sparse triplet. ok is false once exhausted.
func (c *Cursor) NextTriplet(ctx context.Context) (t page.Triplet, ok bool, err error) {
	if err := c.check(); err != nil {
		return page.Triplet{}, false, err
	}
	for !c.done {
		lease, err := c.pin(ctx, c.block)
		if err != nil {
			return page.Triplet{}, false, err
		}
		sp := lease.Sparse()
		if c.offset < sp.Len() {
			t = sp.At(c.offset)
			c.offset++
			return t, true, nil
		}
		c.unpin()
		c.block++
		c.offset = 0
		if c.block >= c.l.BlockCount {
			c.done = true
		}
	}
	return page.Triplet{}, false, nil
}

// Done reports whether the cursor is exhausted.
func (c *Cursor) Done() bool { return c.done }

// Close releases the pinned page. The cursor is exhausted afterwards.
func (c *Cursor) Close() {
	c.unpin()
	c.done = true
}

func (c *Cursor) check() error {
	if c.l == nil {
		return wrapErr("cursor", c.m.name, ErrNotLoaded)
	}
	return nil
}

func (c *Cursor) pin(ctx context.Context, id int) (*bufferpool.Lease, error) {
	if c.lease != nil && c.leased == id {
		return c.lease, nil
	}
	c.unpin()
	kind := page.KindDense
	if c.l.Sparse {
		kind = page.KindSparse
	}
	lease, err := c.m.env.pool.Acquire(ctx, c.m.name, id, kind)
	if err != nil {
		return nil, wrapErr("cursor", c.m.name, err)
	}
	c.lease, c.leased = lease, id
	return lease, nil
}

func (c *Cursor) unpin() {
	if c.lease == nil {
		return
	}
	c.lease.Release()
	c.lease = nil
}
