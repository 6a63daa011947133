package bufferpool

import (
	"context"
	"sync/atomic"

	"github.com/hupe1980/blockmat/internal/page"
)

// Lease is a checked-out page. It must be released exactly once.
type Lease struct {
	pool     *Pool
	f        *frame
	released atomic.Bool
}

// Name returns the page name.
func (l *Lease) Name() string { return l.f.name }

// Page returns the materialized page, or nil after Release.
func (l *Lease) Page() page.Page {
	if l.released.Load() {
		return nil
	}
	return l.f.page
}

// Dense returns the page as a dense page, or nil if it is not one.
func (l *Lease) Dense() *page.Dense {
	d, _ := l.Page().(*page.Dense)
	return d
}

// Sparse returns the page as a sparse page, or nil if it is not one.
func (l *Lease) Sparse() *page.Sparse {
	s, _ := l.Page().(*page.Sparse)
	return s
}

// WriteBack persists the current content of the page.
func (l *Lease) WriteBack(ctx context.Context) error {
	if l.released.Load() {
		return ErrReleased
	}
	return l.pool.put(ctx, l.f.name, l.f.page)
}

// Release returns the lease. Further calls are no-ops.
func (l *Lease) Release() {
	if l.released.Swap(true) {
		return
	}
	l.pool.release(l.f)
}
