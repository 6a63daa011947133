package blockmat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/blockmat/internal/fs"
	"github.com/hupe1980/blockmat/manifest"
)

// Catalogue is a registry of named matrices sharing one configuration,
// page store and buffer pool. It is safe for concurrent use; operations on
// the same matrix are serialized.
type Catalogue struct {
	env *env

	mu       sync.Mutex
	matrices map[string]*entry
}

type entry struct {
	mu sync.Mutex
	m  *Matrix
}

// NewCatalogue creates an empty catalogue.
func NewCatalogue(optFns ...Option) (*Catalogue, error) {
	e, err := newEnv(optFns...)
	if err != nil {
		return nil, err
	}
	return &Catalogue{env: e, matrices: make(map[string]*entry)}, nil
}

// Config returns the catalogue configuration.
func (c *Catalogue) Config() Config { return c.env.cfg }

// Load loads the matrix whose canonical file DataDir/<name>.csv already exists.
func (c *Catalogue) Load(ctx context.Context, name string) (*Matrix, error) {
	return c.load(ctx, name, c.env.cfg.CanonicalPath(name))
}

// LoadFile loads a matrix from an arbitrary CSV file. The file becomes the
// scratch source of the matrix and is removed by MakePermanent and Unload.
func (c *Catalogue) LoadFile(ctx context.Context, name, path string) (*Matrix, error) {
	return c.load(ctx, name, path)
}

// Import copies r to a scratch file in TempDir and loads it.
func (c *Catalogue) Import(ctx context.Context, name string, r io.Reader) (*Matrix, error) {
	if c.Exists(name) {
		return nil, wrapErr("import", name, ErrMatrixExists)
	}
	scratch := filepath.Join(c.env.cfg.TempDir, fmt.Sprintf("%s-%s.csv", name, uuid.NewString()))
	err := fs.WriteFileAtomic(c.env.fs, scratch, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return nil, wrapErr("import", name, err)
	}
	m, err := c.load(ctx, name, scratch)
	if err != nil {
		_ = fs.RemoveIfExists(c.env.fs, scratch)
		return nil, err
	}
	return m, nil
}

func (c *Catalogue) load(ctx context.Context, name, path string) (*Matrix, error) {
	if name == "" {
		return nil, wrapErr("load", name, fmt.Errorf("%w: empty matrix name", ErrInvalidConfig))
	}
	c.mu.Lock()
	if _, ok := c.matrices[name]; ok {
		c.mu.Unlock()
		return nil, wrapErr("load", name, ErrMatrixExists)
	}
	e := &entry{m: newMatrix(c.env, name, path)}
	e.mu.Lock()
	c.matrices[name] = e
	c.mu.Unlock()
	defer e.mu.Unlock()

	if err := e.m.Load(ctx); err != nil {
		c.mu.Lock()
		delete(c.matrices, name)
		c.mu.Unlock()
		return nil, err
	}
	return e.m, nil
}

// Open attaches a matrix loaded by an earlier process from its manifest.
// An attached matrix is returned as is. The manifest is read without holding
// the catalogue lock.
func (c *Catalogue) Open(ctx context.Context, name string) (*Matrix, error) {
	if m, err := c.Get(name); err == nil {
		return m, nil
	}

	mf, err := c.env.manifests.Load(ctx, name)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			err = ErrNoSuchMatrix
		}
		return nil, wrapErr("open", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Loaded or attached by another caller meanwhile.
	if e, ok := c.matrices[name]; ok {
		return e.m, nil
	}
	l := mf.Layout
	m := newMatrix(c.env, name, mf.Source)
	m.layout = &l
	c.env.pool.Restore(name, l.BlockCount)
	c.matrices[name] = &entry{m: m}
	return m, nil
}

// Get returns an attached matrix.
func (c *Catalogue) Get(name string) (*Matrix, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.matrices[name]; ok {
		return e.m, nil
	}
	return nil, wrapErr("get", name, ErrNoSuchMatrix)
}

// Exists reports whether a matrix of that name is attached.
func (c *Catalogue) Exists(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.matrices[name]
	return ok
}

// Names returns the attached matrix names in order.
func (c *Catalogue) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.matrices))
	for name := range c.matrices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stored returns the names of every matrix with a manifest in the page store,
// including those loaded by other processes.
func (c *Catalogue) Stored(ctx context.Context) ([]string, error) {
	names, err := c.env.manifests.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// with runs fn on a matrix, attaching it from its manifest if necessary.
func (c *Catalogue) with(ctx context.Context, name string, fn func(*Matrix) error) error {
	if _, err := c.Open(ctx, name); err != nil {
		return err
	}
	c.mu.Lock()
	e, ok := c.matrices[name]
	c.mu.Unlock()
	if !ok {
		return wrapErr("get", name, ErrNoSuchMatrix)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.m)
}

// Transpose transposes a matrix in place.
func (c *Catalogue) Transpose(ctx context.Context, name string) error {
	return c.with(ctx, name, func(m *Matrix) error { return m.Transpose(ctx) })
}

// Print writes the print window of a matrix to w.
func (c *Catalogue) Print(ctx context.Context, name string, w io.Writer) error {
	return c.with(ctx, name, func(m *Matrix) error { return m.Print(ctx, w) })
}

// Export makes a matrix permanent.
func (c *Catalogue) Export(ctx context.Context, name string) error {
	return c.with(ctx, name, func(m *Matrix) error { return m.MakePermanent(ctx) })
}

// Stats returns the summary of a matrix.
func (c *Catalogue) Stats(ctx context.Context, name string) (Stats, error) {
	var st Stats
	err := c.with(ctx, name, func(m *Matrix) error {
		var err error
		st, err = m.Stats()
		return err
	})
	return st, err
}

// Unload removes a matrix and all of its pages.
func (c *Catalogue) Unload(ctx context.Context, name string) error {
	err := c.with(ctx, name, func(m *Matrix) error { return m.Unload(ctx) })
	if err != nil && errors.Is(err, ErrNoSuchMatrix) {
		return err
	}
	c.mu.Lock()
	if e, ok := c.matrices[name]; ok && !e.m.Loaded() {
		delete(c.matrices, name)
	}
	c.mu.Unlock()
	return err
}
