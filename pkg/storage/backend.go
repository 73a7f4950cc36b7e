package storage

import (
	"errors"
)

var (
	ErrInvalidOffset = errors.New("invalid offset")
	ErrBackendClosed = errors.New("backend is closed")
	// ErrIO wraps failures of the underlying reader
	ErrIO = errors.New("i/o error")
	// ErrPageOutOfRange is returned for page numbers outside the file
	ErrPageOutOfRange = errors.New("page number out of range")
)

// Backend is read-only random access to a database image (disk or memory)
type Backend interface {
	// ReadAt reads len(buf) bytes from the backend at the given offset
	ReadAt(buf []byte, offset int64) (int, error)

	// Size returns the size of the backend in bytes
	Size() int64

	// Close closes the backend
	Close() error
}
