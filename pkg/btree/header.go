package btree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Database file header layout
const (
	FileHeaderSize = 100

	headerOffsetPageSize      = 16
	headerOffsetReservedSpace = 20
	headerOffsetPageCount     = 28
	headerOffsetTextEncoding  = 56

	MinPageSize = 512
	MaxPageSize = 65536
)

// Text encodings recorded in the file header
const (
	EncodingUTF8    = 1
	EncodingUTF16LE = 2
	EncodingUTF16BE = 3
)

var magic = []byte("SQLite format 3\x00")

// ErrInvalidHeader is returned when the first page is not a database header
var ErrInvalidHeader = errors.New("invalid database header")

// DatabaseHeader holds the file header fields the reader depends on together
// with the B-tree header of the schema page that follows it
type DatabaseHeader struct {
	PageSize      uint32
	ReservedSpace uint8
	// PageCount is the in-header database size; zero in files written by
	// very old library versions
	PageCount    uint32
	TextEncoding uint32
	SchemaPage   PageHeader
}

// UsableSize returns the bytes of each page available to B-tree content
func (h *DatabaseHeader) UsableSize() int {
	return int(h.PageSize) - int(h.ReservedSpace)
}

// ReadPageSize extracts the page size from the first bytes of a file.
// A stored value of 1 means 65536.
func ReadPageSize(data []byte) (uint32, error) {
	if len(data) < FileHeaderSize {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidHeader, FileHeaderSize, len(data))
	}
	if !bytes.Equal(data[:len(magic)], magic) {
		return 0, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, data[:len(magic)])
	}

	size := uint32(binary.BigEndian.Uint16(data[headerOffsetPageSize:]))
	if size == 1 {
		size = MaxPageSize
	}
	if size < MinPageSize || size > MaxPageSize || size&(size-1) != 0 {
		return 0, fmt.Errorf("%w: page size %d", ErrInvalidHeader, size)
	}
	return size, nil
}

// ParseDatabaseHeader parses page 1
func ParseDatabaseHeader(page []byte) (*DatabaseHeader, error) {
	size, err := ReadPageSize(page)
	if err != nil {
		return nil, err
	}

	h := &DatabaseHeader{
		PageSize:      size,
		ReservedSpace: page[headerOffsetReservedSpace],
		PageCount:     binary.BigEndian.Uint32(page[headerOffsetPageCount:]),
		TextEncoding:  binary.BigEndian.Uint32(page[headerOffsetTextEncoding:]),
	}
	if h.TextEncoding != 0 && h.TextEncoding != EncodingUTF8 {
		return nil, fmt.Errorf("%w: text encoding %d is not UTF-8", ErrInvalidHeader, h.TextEncoding)
	}
	if h.UsableSize() < 480 {
		return nil, fmt.Errorf("%w: usable size %d", ErrInvalidHeader, h.UsableSize())
	}

	schema, err := ParsePageHeader(page, FileHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("schema page: %w", err)
	}
	h.SchemaPage = *schema
	return h, nil
}
