package btree

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPageType = errors.New("unsupported page type")
	ErrCorruptPage         = errors.New("corrupt page")
)

// PageType is the first byte of a B-tree page header
type PageType uint8

const (
	PageTypeIndexInterior PageType = 0x02
	PageTypeTableInterior PageType = 0x05
	PageTypeIndexLeaf     PageType = 0x0a
	PageTypeTableLeaf     PageType = 0x0d
)

// String returns a readable page type name
func (t PageType) String() string {
	switch t {
	case PageTypeIndexInterior:
		return "index interior"
	case PageTypeTableInterior:
		return "table interior"
	case PageTypeIndexLeaf:
		return "index leaf"
	case PageTypeTableLeaf:
		return "table leaf"
	default:
		return fmt.Sprintf("page type 0x%02x", uint8(t))
	}
}

// Valid reports whether t is one of the four B-tree page types
func (t PageType) Valid() bool {
	switch t {
	case PageTypeIndexInterior, PageTypeTableInterior, PageTypeIndexLeaf, PageTypeTableLeaf:
		return true
	}
	return false
}

// IsInterior reports whether pages of this type hold child pointers
func (t PageType) IsInterior() bool {
	return t == PageTypeIndexInterior || t == PageTypeTableInterior
}

// IsIndex reports whether pages of this type belong to an index tree
func (t PageType) IsIndex() bool {
	return t == PageTypeIndexInterior || t == PageTypeIndexLeaf
}

// Page header field offsets, relative to the header start
const (
	pageOffsetType       = 0
	pageOffsetFreeblock  = 1
	pageOffsetCellCount  = 3
	pageOffsetCellStart  = 5
	pageOffsetFragmented = 7
	pageOffsetRightChild = 8

	leafHeaderSize     = 8
	interiorHeaderSize = 12
)

// PageHeader is the B-tree header at the start of every page (after the file
// header on page 1)
type PageHeader struct {
	Type             PageType
	FirstFreeblock   uint16
	CellCount        uint16
	CellContentStart uint16
	FragmentedBytes  uint8
	// RightChild is the right-most child pointer; zero on leaf pages
	RightChild uint32
}

// IsInterior reports whether the page holds child pointers
func (h *PageHeader) IsInterior() bool { return h.Type.IsInterior() }

// IsIndex reports whether the page belongs to an index tree
func (h *PageHeader) IsIndex() bool { return h.Type.IsIndex() }

// Size returns the header length: 12 bytes for interior pages, 8 for leaves
func (h *PageHeader) Size() int {
	if h.IsInterior() {
		return interiorHeaderSize
	}
	return leafHeaderSize
}

// ParsePageHeader parses the page header found at base in data
func ParsePageHeader(data []byte, base int) (*PageHeader, error) {
	if len(data) < base+leafHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes cannot hold a header at %d", ErrCorruptPage, len(data), base)
	}

	h := &PageHeader{
		Type:             PageType(data[base+pageOffsetType]),
		FirstFreeblock:   binary.BigEndian.Uint16(data[base+pageOffsetFreeblock:]),
		CellCount:        binary.BigEndian.Uint16(data[base+pageOffsetCellCount:]),
		CellContentStart: binary.BigEndian.Uint16(data[base+pageOffsetCellStart:]),
		FragmentedBytes:  data[base+pageOffsetFragmented],
	}
	if !h.Type.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedPageType, uint8(h.Type))
	}
	if h.IsInterior() {
		if len(data) < base+interiorHeaderSize {
			return nil, fmt.Errorf("%w: truncated interior header", ErrCorruptPage)
		}
		h.RightChild = binary.BigEndian.Uint32(data[base+pageOffsetRightChild:])
	}
	return h, nil
}

// Page is a decoded B-tree page. Its cells reference the page buffer.
type Page struct {
	Number       uint32
	Header       PageHeader
	CellPointers []uint16
	Cells        []Cell
}

// BaseOffset returns where the B-tree header of page pgno begins
func BaseOffset(pgno uint32) int {
	if pgno == 1 {
		return FileHeaderSize
	}
	return 0
}

// DecodePage parses the header, cell pointer array and cells of a page.
// usable is the page size minus the reserved bytes at the end of each page.
func DecodePage(pgno uint32, data []byte, usable int) (*Page, error) {
	base := BaseOffset(pgno)
	hdr, err := ParsePageHeader(data, base)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pgno, err)
	}

	ptrStart := base + hdr.Size()
	ptrEnd := ptrStart + 2*int(hdr.CellCount)
	if ptrEnd > len(data) {
		return nil, fmt.Errorf("page %d: %w: %d cell pointers overflow the page", pgno, ErrCorruptPage, hdr.CellCount)
	}
	if usable <= 0 || usable > len(data) {
		usable = len(data)
	}

	p := &Page{
		Number:       pgno,
		Header:       *hdr,
		CellPointers: make([]uint16, hdr.CellCount),
		Cells:        make([]Cell, hdr.CellCount),
	}
	for i := range p.CellPointers {
		ptr := binary.BigEndian.Uint16(data[ptrStart+2*i:])
		if int(ptr) < ptrEnd || int(ptr) >= usable {
			return nil, fmt.Errorf("page %d: %w: cell %d pointer %d outside content area",
				pgno, ErrCorruptPage, i, ptr)
		}
		p.CellPointers[i] = ptr

		cell, err := decodeCell(hdr.Type, data[ptr:usable], usable)
		if err != nil {
			return nil, fmt.Errorf("page %d cell %d: %w", pgno, i, err)
		}
		p.Cells[i] = cell
	}
	return p, nil
}
