package storage

import (
	"io"
	"sync"
)

// MemoryBackend implements the Backend interface over an in-memory image
type MemoryBackend struct {
	data   []byte
	closed bool
	mu     sync.RWMutex
}

// NewMemory creates a backend serving data. The slice is not copied.
func NewMemory(data []byte) *MemoryBackend {
	return &MemoryBackend{data: data}
}

// ReadAt reads data from memory at the specified offset
func (m *MemoryBackend) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, ErrInvalidOffset
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrBackendClosed
	}
	if offset >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(buf, m.data[offset:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the image size
func (m *MemoryBackend) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.data))
}

// Close releases the image
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
