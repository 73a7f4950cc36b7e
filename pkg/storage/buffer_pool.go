package storage

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
)

// BufferPool caches raw pages keyed by page number. Pages are immutable once
// read, so cached slices are shared between readers and must not be modified.
type BufferPool struct {
	capacity int
	cache    *ristretto.Cache[uint32, []byte]
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// NewBufferPool creates a pool holding up to capacity pages
func NewBufferPool(capacity int) (*BufferPool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("buffer pool capacity must be positive, got %d", capacity)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		NumCounters:        int64(capacity) * 10,
		MaxCost:            int64(capacity),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}

	return &BufferPool{
		capacity: capacity,
		cache:    cache,
	}, nil
}

// Capacity returns the maximum number of cached pages
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}

// Get returns a cached page
func (bp *BufferPool) Get(pgno uint32) ([]byte, bool) {
	data, ok := bp.cache.Get(pgno)
	if ok {
		bp.hits.Add(1)
	} else {
		bp.misses.Add(1)
	}
	return data, ok
}

// Put offers a page to the cache. Admission is asynchronous and may be
// refused under pressure.
func (bp *BufferPool) Put(pgno uint32, data []byte) bool {
	return bp.cache.Set(pgno, data, 1)
}

// Wait blocks until pending Puts are applied
func (bp *BufferPool) Wait() {
	bp.cache.Wait()
}

// Stats returns the hit and miss counters
func (bp *BufferPool) Stats() (hits, misses uint64) {
	return bp.hits.Load(), bp.misses.Load()
}

// Close releases the cache
func (bp *BufferPool) Close() {
	bp.cache.Close()
}
