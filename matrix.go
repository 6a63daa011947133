package blockmat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/blockmat/internal/bufferpool"
	"github.com/hupe1980/blockmat/internal/layout"
	"github.com/hupe1980/blockmat/internal/page"
	"github.com/hupe1980/blockmat/manifest"
)

// Matrix is a named square integer matrix stored as fixed-size pages.
//
// A Matrix is not safe for concurrent use. Every operation assumes exclusive
// access to the matrix for its duration.
type Matrix struct {
	env    *env
	name   string
	source string
	layout *layout.Layout
}

// NewMatrix returns an unloaded matrix backed by the CSV file at source.
func NewMatrix(name, source string, optFns ...Option) (*Matrix, error) {
	e, err := newEnv(optFns...)
	if err != nil {
		return nil, err
	}
	return newMatrix(e, name, source), nil
}

func newMatrix(e *env, name, source string) *Matrix {
	return &Matrix{env: e, name: name, source: source}
}

// Name returns the matrix name.
func (m *Matrix) Name() string { return m.name }

// Source returns the current source locator.
func (m *Matrix) Source() string { return m.source }

// Loaded reports whether the matrix has been blockified.
func (m *Matrix) Loaded() bool { return m.layout != nil }

// Size returns N, or 0 if the matrix is not loaded.
func (m *Matrix) Size() int {
	if m.layout == nil {
		return 0
	}
	return m.layout.Columns
}

// IsSparse reports whether the matrix is stored as triplets.
func (m *Matrix) IsSparse() bool { return m.layout != nil && m.layout.Sparse }

// BlockCount returns the number of pages.
func (m *Matrix) BlockCount() int {
	if m.layout == nil {
		return 0
	}
	return m.layout.BlockCount
}

// BlocksPerRow returns the dense grid width, or 0 for sparse matrices.
func (m *Matrix) BlocksPerRow() int {
	if m.layout == nil {
		return 0
	}
	return m.layout.BlocksPerRow
}

// UnitsPerBlock returns M for dense matrices and C for sparse ones.
func (m *Matrix) UnitsPerBlock() int {
	if m.layout == nil {
		return 0
	}
	return m.layout.UnitsPerBlock
}

// BlockShape returns the occupied extent of block id. Sparse blocks report
// (triplet count, 3).
func (m *Matrix) BlockShape(id int) (rows, cols int, err error) {
	if m.layout == nil {
		return 0, 0, wrapErr("shape", m.name, ErrNotLoaded)
	}
	if id < 0 || id >= m.layout.BlockCount {
		return 0, 0, wrapErr("shape", m.name, fmt.Errorf("%w: block %d of %d", ErrMissingBlock, id, m.layout.BlockCount))
	}
	s := m.layout.Shapes[id]
	return s.Rows, s.Cols, nil
}

// Stats describes a loaded matrix.
type Stats struct {
	Name          string  `json:"name"`
	Source        string  `json:"source"`
	Permanent     bool    `json:"permanent"`
	Size          int     `json:"size"`
	Sparse        bool    `json:"sparse"`
	UnitsPerBlock int     `json:"units_per_block"`
	BlocksPerRow  int     `json:"blocks_per_row,omitempty"`
	BlockCount    int     `json:"block_count"`
	Zeros         int     `json:"zeros"`
	ZeroFraction  float64 `json:"zero_fraction"`
}

// Stats returns a summary of the matrix.
func (m *Matrix) Stats() (Stats, error) {
	if m.layout == nil {
		return Stats{}, wrapErr("stats", m.name, ErrNotLoaded)
	}
	l := m.layout
	return Stats{
		Name:          m.name,
		Source:        m.source,
		Permanent:     m.IsPermanent(),
		Size:          l.Columns,
		Sparse:        l.Sparse,
		UnitsPerBlock: l.UnitsPerBlock,
		BlocksPerRow:  l.BlocksPerRow,
		BlockCount:    l.BlockCount,
		Zeros:         l.Zeros,
		ZeroFraction:  l.ZeroFraction(),
	}, nil
}

// Load reads the source, decides the representation and writes every page.
// On failure no pages of the matrix remain.
func (m *Matrix) Load(ctx context.Context) (err error) {
	if m.layout != nil {
		return wrapErr("load", m.name, ErrMatrixExists)
	}

	start := time.Now()
	var l *layout.Layout
	defer func() {
		sparse, blocks := false, 0
		if l != nil {
			sparse, blocks = l.Sparse, l.BlockCount
		}
		m.env.metrics.RecordLoad(sparse, blocks, time.Since(start), err)
		m.env.logger.LogLoad(ctx, m.name, sparse, blocks, time.Since(start), err)
	}()

	l, err = layout.Plan(m.env.fs, m.source, m.env.cfg.params())
	if err != nil {
		return wrapErr("load", m.name, err)
	}
	if err = m.removeStalePages(ctx); err != nil {
		return wrapErr("load", m.name, err)
	}

	if l.Sparse {
		err = m.blockifySparse(ctx, l)
	} else {
		err = m.blockifyDense(ctx, l)
	}
	if err == nil {
		m.layout = l
		err = m.saveManifest(ctx)
	}
	if err != nil {
		m.layout = nil
		m.discardPages(context.WithoutCancel(ctx))
		return wrapErr("load", m.name, err)
	}
	return nil
}

// discardPages removes every page of a failed load, including pages whose
// write failed half way.
func (m *Matrix) discardPages(ctx context.Context) {
	err := m.env.pool.DeleteMatrix(ctx, m.name)
	if err == nil {
		err = m.removeStalePages(ctx)
	}
	if err != nil {
		m.env.logger.WarnContext(ctx, "cleanup after failed load", "matrix", m.name, "error", err)
	}
}

// removeStalePages deletes pages of the same name left by an earlier process.
func (m *Matrix) removeStalePages(ctx context.Context) error {
	store := m.env.pool.Store()
	prefix := bufferpool.PageName(m.name, 0)
	prefix = prefix[:len(prefix)-1]

	names, err := store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := strconv.Atoi(strings.TrimPrefix(name, prefix)); err != nil {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Matrix) saveManifest(ctx context.Context) error {
	return m.env.manifests.Save(ctx, &manifest.Matrix{
		Name:   m.name,
		Source: m.source,
		Layout: *m.layout,
	})
}

func (m *Matrix) requireLoaded(op string) error {
	if m.layout == nil {
		return wrapErr(op, m.name, ErrNotLoaded)
	}
	return nil
}

func (m *Matrix) kind() page.Kind {
	if m.layout.Sparse {
		return page.KindSparse
	}
	return page.KindDense
}
