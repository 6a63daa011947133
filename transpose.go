package blockmat

import (
	"context"
	"time"
)

// Transpose replaces the matrix by its transpose, page by page.
//
// Dense matrices transpose each diagonal block in place and swap-transpose
// every off-diagonal pair (i, j), (j, i). Sparse matrices first transpose
// every block locally, then reconcile every pair of blocks so that block i
// holds only triplets ordering before those of block j. Block shapes and
// counts are unchanged.
func (m *Matrix) Transpose(ctx context.Context) (err error) {
	if err := m.requireLoaded("transpose"); err != nil {
		return err
	}

	start := time.Now()
	pairs := 0
	defer func() {
		m.env.metrics.RecordTranspose(m.layout.Sparse, time.Since(start), err)
		m.env.logger.LogTranspose(ctx, m.name, pairs, time.Since(start), err)
	}()

	if m.layout.Sparse {
		pairs, err = m.transposeSparse(ctx)
	} else {
		pairs, err = m.transposeDense(ctx)
	}
	if err != nil {
		return wrapErr("transpose", m.name, err)
	}
	return wrapErr("transpose", m.name, m.saveManifest(ctx))
}

func (m *Matrix) transposeDense(ctx context.Context) (int, error) {
	l, pool := m.layout, m.env.pool
	pairs := 0
	for i := 0; i < l.BlocksPerRow; i++ {
		for j := i; j < l.BlocksPerRow; j++ {
			if err := ctx.Err(); err != nil {
				return pairs, err
			}
			a, err := pool.Acquire(ctx, m.name, l.BlockID(i, j), m.kind())
			if err != nil {
				return pairs, err
			}
			if i == j {
				a.Dense().Transpose()
				err = a.WriteBack(ctx)
				a.Release()
				if err != nil {
					return pairs, err
				}
				pairs++
				continue
			}

			b, err := pool.Acquire(ctx, m.name, l.BlockID(j, i), m.kind())
			if err != nil {
				a.Release()
				return pairs, err
			}
			a.Dense().TransposeWith(b.Dense())
			err = a.WriteBack(ctx)
			if err == nil {
				err = b.WriteBack(ctx)
			}
			a.Release()
			b.Release()
			if err != nil {
				return pairs, err
			}
			pairs++
		}
	}
	return pairs, nil
}

func (m *Matrix) transposeSparse(ctx context.Context) (int, error) {
	l, pool := m.layout, m.env.pool
	for id := 0; id < l.BlockCount; id++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		lease, err := pool.Acquire(ctx, m.name, id, m.kind())
		if err != nil {
			return 0, err
		}
		lease.Sparse().Transpose()
		err = lease.WriteBack(ctx)
		lease.Release()
		if err != nil {
			return 0, err
		}
	}

	pairs := 0
	for i := 0; i < l.BlockCount; i++ {
		a, err := pool.Acquire(ctx, m.name, i, m.kind())
		if err != nil {
			return pairs, err
		}
		for j := i + 1; j < l.BlockCount; j++ {
			if err := ctx.Err(); err != nil {
				a.Release()
				return pairs, err
			}
			b, err := pool.Acquire(ctx, m.name, j, m.kind())
			if err != nil {
				a.Release()
				return pairs, err
			}
			if a.Sparse().Reconcile(b.Sparse()) {
				err = a.WriteBack(ctx)
				if err == nil {
					err = b.WriteBack(ctx)
				}
			}
			b.Release()
			if err != nil {
				a.Release()
				return pairs, err
			}
			pairs++
		}
		a.Release()
	}
	return pairs, nil
}
