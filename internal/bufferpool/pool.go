package bufferpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/blockmat/blobstore"
	"github.com/hupe1980/blockmat/internal/page"
	"github.com/hupe1980/blockmat/internal/resource"
)

var (
	// ErrMissingBlock is returned when a block id was never written.
	ErrMissingBlock = errors.New("missing block")

	// ErrPinned is returned when rewriting a page that has live leases.
	ErrPinned = errors.New("page is pinned")

	// ErrReleased is returned when using a lease after Release.
	ErrReleased = errors.New("lease released")
)

// Page IO operations reported to the Observer.
const (
	OpAppend = "append"
	OpWrite  = "write"
	OpRead   = "read"
	OpDelete = "delete"
)

// Observer receives page IO events.
type Observer interface {
	RecordPageIO(op string, bytes int)
}

type noopObserver struct{}

func (noopObserver) RecordPageIO(string, int) {}

// PageName returns the blob name of block id of matrix.
func PageName(matrix string, id int) string {
	return matrix + "_Page" + strconv.Itoa(id)
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithResourceController charges materialized frames and page IO to rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(p *Pool) { p.rc = rc }
}

// WithObserver reports page IO to o.
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// Pool hands out leases over pages of a BlobStore.
type Pool struct {
	store    blobstore.BlobStore
	rc       *resource.Controller
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	frames  map[string]*frame
	written map[string]*roaring.Bitmap
}

type frame struct {
	name    string
	kind    page.Kind
	page    page.Page
	refs    int
	charged int64
}

// New creates a Pool over store.
func New(store blobstore.BlobStore, optFns ...Option) *Pool {
	p := &Pool{
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		observer: noopObserver{},
		frames:   make(map[string]*frame),
		written:  make(map[string]*roaring.Bitmap),
	}
	for _, fn := range optFns {
		fn(p)
	}
	return p
}

// Store returns the underlying page store.
func (p *Pool) Store() blobstore.BlobStore { return p.store }

func (p *Pool) markWritten(matrix string, id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bm, ok := p.written[matrix]
	if !ok {
		bm = roaring.New()
		p.written[matrix] = bm
	}
	bm.Add(uint32(id))
}

func (p *Pool) checkUnpinned(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.frames[name]; ok && f.refs > 0 {
		return fmt.Errorf("%w: %s", ErrPinned, name)
	}
	return nil
}

// AppendRow appends one dense row segment to block id.
func (p *Pool) AppendRow(ctx context.Context, matrix string, id int, row []int) error {
	name := PageName(matrix, id)
	if err := p.checkUnpinned(name); err != nil {
		return err
	}
	line := page.EncodeRow(row)
	if err := p.rc.AcquireIO(ctx, len(line)); err != nil {
		return err
	}
	if err := p.store.Append(ctx, name, line); err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	p.observer.RecordPageIO(OpAppend, len(line))
	p.markWritten(matrix, id)
	return nil
}

// WritePage persists a freshly built page as block id, replacing any previous content.
func (p *Pool) WritePage(ctx context.Context, matrix string, id int, pg page.Page) error {
	name := PageName(matrix, id)
	if err := p.checkUnpinned(name); err != nil {
		return err
	}
	if err := p.put(ctx, name, pg); err != nil {
		return err
	}
	p.markWritten(matrix, id)
	return nil
}

func (p *Pool) put(ctx context.Context, name string, pg page.Page) error {
	data := pg.Encode()
	if err := p.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := p.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	p.observer.RecordPageIO(OpWrite, len(data))
	return nil
}

// Restore marks blocks [0, blockCount) of matrix as written, for matrices
// whose pages were built by an earlier process.
func (p *Pool) Restore(matrix string, blockCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bm := roaring.New()
	if blockCount > 0 {
		bm.AddRange(0, uint64(blockCount))
	}
	p.written[matrix] = bm
}

// Has reports whether block id of matrix has been written.
func (p *Pool) Has(matrix string, id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	bm, ok := p.written[matrix]
	return ok && id >= 0 && bm.Contains(uint32(id))
}

// Blocks returns the number of written blocks of matrix.
func (p *Pool) Blocks(matrix string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bm, ok := p.written[matrix]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

// Pinned returns the number of materialized frames.
func (p *Pool) Pinned() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

// Acquire checks out block id of matrix, decoding it as kind.
func (p *Pool) Acquire(ctx context.Context, matrix string, id int, kind page.Kind) (*Lease, error) {
	if !p.Has(matrix, id) {
		return nil, fmt.Errorf("%w: %s block %d", ErrMissingBlock, matrix, id)
	}
	name := PageName(matrix, id)

	p.mu.Lock()
	if f, ok := p.frames[name]; ok {
		if f.kind != kind {
			p.mu.Unlock()
			return nil, fmt.Errorf("%s is pinned as %s, not %s", name, f.kind, kind)
		}
		f.refs++
		p.mu.Unlock()
		return &Lease{pool: p, f: f}, nil
	}
	p.mu.Unlock()

	f, err := p.load(ctx, name, kind)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have loaded the same page meanwhile.
	if existing, ok := p.frames[name]; ok {
		p.rc.ReleaseMemory(f.charged)
		existing.refs++
		return &Lease{pool: p, f: existing}, nil
	}
	f.refs = 1
	p.frames[name] = f
	return &Lease{pool: p, f: f}, nil
}

func (p *Pool) load(ctx context.Context, name string, kind page.Kind) (*frame, error) {
	data, err := blobstore.ReadAll(ctx, p.store, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMissingBlock, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := p.rc.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	p.observer.RecordPageIO(OpRead, len(data))

	pg, err := page.Decode(kind, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	size := pg.SizeBytes()
	if err := p.rc.AcquireMemory(size); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", name, err)
	}
	p.logger.Debug("page materialized", "page", name, "kind", kind.String(), "bytes", len(data))
	return &frame{name: name, kind: kind, page: pg, charged: size}, nil
}

func (p *Pool) release(f *frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f.refs--
	if f.refs > 0 {
		return
	}
	delete(p.frames, f.name)
	p.rc.ReleaseMemory(f.charged)
	p.logger.Debug("page evicted", "page", f.name)
}

// DeletePage removes block id of matrix from the store.
func (p *Pool) DeletePage(ctx context.Context, matrix string, id int) error {
	name := PageName(matrix, id)
	if err := p.checkUnpinned(name); err != nil {
		return err
	}
	if err := p.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	p.observer.RecordPageIO(OpDelete, 0)

	p.mu.Lock()
	defer p.mu.Unlock()
	if bm, ok := p.written[matrix]; ok {
		bm.Remove(uint32(id))
	}
	return nil
}

// DeleteMatrix removes every written page of matrix and forgets it.
func (p *Pool) DeleteMatrix(ctx context.Context, matrix string) error {
	p.mu.Lock()
	var ids []uint32
	if bm, ok := p.written[matrix]; ok {
		ids = bm.ToArray()
	}
	p.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := p.DeletePage(ctx, matrix, int(id)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	p.mu.Lock()
	delete(p.written, matrix)
	p.mu.Unlock()
	return nil
}
