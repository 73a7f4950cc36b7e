package storage

import (
	"fmt"
	"os"
	"sync"
)

// DiskBackend implements the Backend interface over a read-only file handle
type DiskBackend struct {
	file     *os.File
	filePath string
	fileSize int64
	mu       sync.RWMutex
}

// OpenDisk opens an existing database file for reading
func OpenDisk(path string) (*DiskBackend, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fmt.Errorf("failed to open file: %s is a directory", path)
	}

	return &DiskBackend{
		file:     file,
		filePath: path,
		fileSize: stat.Size(),
	}, nil
}

// Path returns the file path
func (d *DiskBackend) Path() string {
	return d.filePath
}

// ReadAt reads data from the file at the specified offset
func (d *DiskBackend) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, ErrInvalidOffset
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.file == nil {
		return 0, ErrBackendClosed
	}

	return d.file.ReadAt(buf, offset)
}

// Size returns the file size observed when the file was opened
func (d *DiskBackend) Size() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fileSize
}

// Close closes the file
func (d *DiskBackend) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}

	err := d.file.Close()
	d.file = nil
	return err
}
