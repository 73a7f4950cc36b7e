package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
)

// PagerOptions configures a Pager
type PagerOptions struct {
	// CacheSize is the number of pages kept in the buffer pool; 0 disables caching
	CacheSize int
	// ReadRetries is how many times a failed read is retried
	ReadRetries int
	Logger      *slog.Logger
}

// PagerStats reports pager activity
type PagerStats struct {
	Reads       uint64
	CacheHits   uint64
	CacheMisses uint64
}

// Pager serves fixed-size pages, numbered from 1, out of a Backend
type Pager struct {
	backend   Backend
	pageSize  int
	pageCount uint32
	pool      *BufferPool
	retries   int
	reads     atomic.Uint64
	logger    *slog.Logger
}

// NewPager creates a pager over backend. The page count is derived from the
// backend size; a trailing partial page is not addressable.
func NewPager(backend Backend, pageSize int, opts PagerOptions) (*Pager, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}

	p := &Pager{
		backend:   backend,
		pageSize:  pageSize,
		pageCount: uint32(backend.Size() / int64(pageSize)),
		retries:   opts.ReadRetries,
		logger:    opts.Logger,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.retries < 0 {
		p.retries = 0
	}
	if opts.CacheSize > 0 {
		pool, err := NewBufferPool(opts.CacheSize)
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}
	return p, nil
}

// PageSize returns the page size in bytes
func (p *Pager) PageSize() int {
	return p.pageSize
}

// PageCount returns the number of whole pages in the backend
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// ReadPage returns page pgno. The returned slice must not be modified.
func (p *Pager) ReadPage(ctx context.Context, pgno uint32) ([]byte, error) {
	if pgno == 0 || pgno > p.pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pgno, p.pageCount)
	}
	if p.pool != nil {
		if data, ok := p.pool.Get(pgno); ok {
			return data, nil
		}
	}

	data := make([]byte, p.pageSize)
	offset := int64(pgno-1) * int64(p.pageSize)

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.reads.Add(1)

		n, err := p.backend.ReadAt(data, offset)
		if n == len(data) && (err == nil || errors.Is(err, io.EOF)) {
			if p.pool != nil {
				p.pool.Put(pgno, data)
			}
			return data, nil
		}
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		lastErr = err
		if errors.Is(err, ErrBackendClosed) {
			break
		}
		p.logger.DebugContext(ctx, "page read failed", "page", pgno, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("%w: reading page %d: %v", ErrIO, pgno, lastErr)
}

// Stats returns read and cache counters
func (p *Pager) Stats() PagerStats {
	s := PagerStats{Reads: p.reads.Load()}
	if p.pool != nil {
		s.CacheHits, s.CacheMisses = p.pool.Stats()
	}
	return s
}

// WaitCache blocks until pending cache admissions are applied
func (p *Pager) WaitCache() {
	if p.pool != nil {
		p.pool.Wait()
	}
}

// Close releases the cache and the backend
func (p *Pager) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return p.backend.Close()
}
