package blockmat

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/hupe1980/blockmat/internal/fs"
)

// IsPermanent reports whether the source is the canonical file of the matrix.
func (m *Matrix) IsPermanent() bool {
	return m.source == m.env.cfg.CanonicalPath(m.name)
}

// MakePermanent writes the full matrix to its canonical file in DataDir and
// makes that file the source. A non-canonical scratch source is removed.
func (m *Matrix) MakePermanent(ctx context.Context) (err error) {
	if err := m.requireLoaded("export"); err != nil {
		return err
	}

	start := time.Now()
	path := m.env.cfg.CanonicalPath(m.name)
	defer func() {
		m.env.metrics.RecordExport(time.Since(start), err)
		m.env.logger.LogExport(ctx, m.name, path, err)
	}()

	if !m.IsPermanent() {
		if err = fs.RemoveIfExists(m.env.fs, m.source); err != nil {
			return wrapErr("export", m.name, err)
		}
	}

	n := m.layout.Columns
	err = fs.WriteFileAtomic(m.env.fs, path, func(w io.Writer) error {
		bw := bufio.NewWriterSize(w, 64*1024)
		var werr error
		if m.layout.Sparse {
			werr = m.writeSparse(ctx, bw, n, ",")
		} else {
			werr = m.writeDense(ctx, bw, n, ",")
		}
		if werr != nil {
			return werr
		}
		return bw.Flush()
	})
	if err != nil {
		return wrapErr("export", m.name, err)
	}

	m.source = path
	return wrapErr("export", m.name, m.saveManifest(ctx))
}

// Unload deletes every page and the manifest of the matrix. A non-canonical
// source is removed as well. The matrix is unloaded afterwards even if
// cleanup partially failed.
func (m *Matrix) Unload(ctx context.Context) (err error) {
	if err := m.requireLoaded("unload"); err != nil {
		return err
	}
	defer func() {
		m.env.logger.LogUnload(ctx, m.name, err)
	}()

	if err = m.env.pool.DeleteMatrix(ctx, m.name); err != nil {
		return wrapErr("unload", m.name, err)
	}
	m.layout = nil
	if !m.IsPermanent() {
		if err = fs.RemoveIfExists(m.env.fs, m.source); err != nil {
			return wrapErr("unload", m.name, err)
		}
	}
	return wrapErr("unload", m.name, m.env.manifests.Delete(ctx, m.name))
}
