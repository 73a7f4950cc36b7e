package btree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cobaltdb/sqlitescan/pkg/record"
	"github.com/cobaltdb/sqlitescan/pkg/varint"
)

// ErrOverflowPayload is returned for cells whose payload spills onto overflow
// pages, which this reader does not follow
var ErrOverflowPayload = errors.New("payload overflows the page")

// Cell is one entry of a B-tree page. The concrete type matches the page type:
// *TableLeafCell, *TableInteriorCell, *IndexLeafCell or *IndexInteriorCell.
type Cell interface {
	pageType() PageType
}

// TableLeafCell carries a row: its rowid and the undecoded record
type TableLeafCell struct {
	RowID   int64
	Payload []byte
}

// TableInteriorCell points at the subtree holding rowids <= RowID
type TableInteriorCell struct {
	LeftChild uint32
	RowID     int64
}

// IndexLeafCell is an index entry: the indexed values and the rowid they
// belong to
type IndexLeafCell struct {
	Key   []record.Value
	RowID int64
}

// IndexInteriorCell is an index entry that also points at the subtree holding
// keys <= Key
type IndexInteriorCell struct {
	LeftChild uint32
	Key       []record.Value
	RowID     int64
}

func (*TableLeafCell) pageType() PageType     { return PageTypeTableLeaf }
func (*TableInteriorCell) pageType() PageType { return PageTypeTableInterior }
func (*IndexLeafCell) pageType() PageType     { return PageTypeIndexLeaf }
func (*IndexInteriorCell) pageType() PageType { return PageTypeIndexInterior }

// ChildPage returns the left child of an interior cell and false for leaf cells
func ChildPage(c Cell) (uint32, bool) {
	switch c := c.(type) {
	case *TableInteriorCell:
		return c.LeftChild, true
	case *IndexInteriorCell:
		return c.LeftChild, true
	}
	return 0, false
}

// CellRowID returns the rowid carried by any cell variant
func CellRowID(c Cell) int64 {
	switch c := c.(type) {
	case *TableLeafCell:
		return c.RowID
	case *TableInteriorCell:
		return c.RowID
	case *IndexLeafCell:
		return c.RowID
	case *IndexInteriorCell:
		return c.RowID
	}
	return 0
}

// CellKey returns the sort key of an index cell, or nil for table cells
func CellKey(c Cell) []record.Value {
	switch c := c.(type) {
	case *IndexLeafCell:
		return c.Key
	case *IndexInteriorCell:
		return c.Key
	}
	return nil
}

func decodeCell(t PageType, buf []byte, usable int) (Cell, error) {
	switch t {
	case PageTypeTableLeaf:
		size, n, err := varint.Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("payload size: %w", err)
		}
		rowid, m, err := varint.Decode(buf[n:])
		if err != nil {
			return nil, fmt.Errorf("rowid: %w", err)
		}
		payload, err := localPayload(buf[n+m:], size, maxLocal(usable, true))
		if err != nil {
			return nil, err
		}
		return &TableLeafCell{RowID: int64(rowid), Payload: payload}, nil

	case PageTypeTableInterior:
		if len(buf) < 4 {
			return nil, fmt.Errorf("%w: truncated child pointer", ErrCorruptPage)
		}
		rowid, _, err := varint.Decode(buf[4:])
		if err != nil {
			return nil, fmt.Errorf("rowid: %w", err)
		}
		return &TableInteriorCell{
			LeftChild: binary.BigEndian.Uint32(buf),
			RowID:     int64(rowid),
		}, nil

	case PageTypeIndexLeaf:
		key, rowid, err := decodeIndexPayload(buf, usable)
		if err != nil {
			return nil, err
		}
		return &IndexLeafCell{Key: key, RowID: rowid}, nil

	case PageTypeIndexInterior:
		if len(buf) < 4 {
			return nil, fmt.Errorf("%w: truncated child pointer", ErrCorruptPage)
		}
		key, rowid, err := decodeIndexPayload(buf[4:], usable)
		if err != nil {
			return nil, err
		}
		return &IndexInteriorCell{
			LeftChild: binary.BigEndian.Uint32(buf),
			Key:       key,
			RowID:     rowid,
		}, nil
	}
	return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedPageType, uint8(t))
}

// decodeIndexPayload splits an index record into the indexed values and the
// trailing rowid
func decodeIndexPayload(buf []byte, usable int) ([]record.Value, int64, error) {
	size, n, err := varint.Decode(buf)
	if err != nil {
		return nil, 0, fmt.Errorf("payload size: %w", err)
	}
	payload, err := localPayload(buf[n:], size, maxLocal(usable, false))
	if err != nil {
		return nil, 0, err
	}

	values, err := record.DecodeSerial(payload)
	if err != nil {
		return nil, 0, err
	}
	if len(values) < 2 {
		return nil, 0, fmt.Errorf("%w: index record has %d columns", ErrCorruptPage, len(values))
	}
	last := values[len(values)-1]
	if last.Kind() != record.KindInteger {
		return nil, 0, fmt.Errorf("%w: index record ends with %s, not a rowid", ErrCorruptPage, last.Kind())
	}
	return values[:len(values)-1], last.Int(), nil
}

func localPayload(buf []byte, size uint64, max int) ([]byte, error) {
	if size > uint64(max) {
		return nil, fmt.Errorf("%w: %d bytes exceeds local limit %d", ErrOverflowPayload, size, max)
	}
	if size > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: payload of %d bytes runs past the page", ErrCorruptPage, size)
	}
	return buf[:size], nil
}

// maxLocal is the largest payload stored entirely on a page
func maxLocal(usable int, table bool) int {
	if table {
		return usable - 35
	}
	return (usable-12)*64/255 - 23
}
