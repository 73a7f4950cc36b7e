package btree

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltdb/sqlitescan/pkg/record"
	"github.com/cobaltdb/sqlitescan/pkg/varint"
)

func fileHeaderPage(pageSize uint16, cells [][]byte) []byte {
	data := buildPage(1, PageTypeTableLeaf, 0, cells)
	copy(data, "SQLite format 3\x00")
	binary.BigEndian.PutUint16(data[headerOffsetPageSize:], pageSize)
	binary.BigEndian.PutUint32(data[headerOffsetPageCount:], 7)
	binary.BigEndian.PutUint32(data[headerOffsetTextEncoding:], EncodingUTF8)
	return data
}

func TestParseDatabaseHeader(t *testing.T) {
	page := fileHeaderPage(testPageSize, [][]byte{
		tableLeafCell(1, record.Text("table")),
		tableLeafCell(2, record.Text("table")),
		tableLeafCell(3, record.Text("index")),
	})

	h, err := ParseDatabaseHeader(page)
	require.NoError(t, err)
	assert.Equal(t, uint32(testPageSize), h.PageSize)
	assert.Equal(t, uint32(7), h.PageCount)
	assert.Equal(t, testPageSize, h.UsableSize())
	assert.Equal(t, PageTypeTableLeaf, h.SchemaPage.Type)
	assert.Equal(t, uint16(3), h.SchemaPage.CellCount)
}

func TestReadPageSize(t *testing.T) {
	page := fileHeaderPage(1, nil)
	size, err := ReadPageSize(page)
	require.NoError(t, err)
	assert.Equal(t, uint32(MaxPageSize), size)

	binary.BigEndian.PutUint16(page[headerOffsetPageSize:], 1000)
	_, err = ReadPageSize(page)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	binary.BigEndian.PutUint16(page[headerOffsetPageSize:], 256)
	_, err = ReadPageSize(page)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestParseDatabaseHeaderRejects(t *testing.T) {
	page := fileHeaderPage(testPageSize, nil)
	page[0] = 'X'
	_, err := ParseDatabaseHeader(page)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ParseDatabaseHeader(page[:50])
	assert.ErrorIs(t, err, ErrInvalidHeader)

	page = fileHeaderPage(testPageSize, nil)
	binary.BigEndian.PutUint32(page[headerOffsetTextEncoding:], EncodingUTF16LE)
	_, err = ParseDatabaseHeader(page)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestDecodePageTableLeaf(t *testing.T) {
	data := buildPage(3, PageTypeTableLeaf, 0, [][]byte{
		tableLeafCell(1, record.Text("apple")),
		tableLeafCell(9, record.Text("pear")),
	})

	p, err := DecodePage(3, data, testPageSize)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), p.Number)
	assert.Equal(t, 8, p.Header.Size())
	assert.False(t, p.Header.IsInterior())
	require.Len(t, p.Cells, 2)
	require.Len(t, p.CellPointers, 2)
	assert.Greater(t, p.CellPointers[0], p.CellPointers[1])

	leaf, ok := p.Cells[1].(*TableLeafCell)
	require.True(t, ok)
	assert.Equal(t, int64(9), leaf.RowID)

	values, err := record.Decode(leaf.Payload, []record.TypeTag{record.TypeText})
	require.NoError(t, err)
	assert.Equal(t, "pear", values[0].Str())
}

func TestDecodePageOne(t *testing.T) {
	data := fileHeaderPage(testPageSize, [][]byte{
		tableLeafCell(1, record.Text("table"), record.Text("apples")),
	})

	p, err := DecodePage(1, data, testPageSize)
	require.NoError(t, err)
	require.Len(t, p.Cells, 1)
	assert.Equal(t, int64(1), CellRowID(p.Cells[0]))
}

func TestDecodePageInterior(t *testing.T) {
	data := buildPage(2, PageTypeTableInterior, 99, [][]byte{
		tableInteriorCell(3, 10),
		tableInteriorCell(4, 20),
	})

	p, err := DecodePage(2, data, testPageSize)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Header.Size())
	assert.Equal(t, uint32(99), p.Header.RightChild)

	child, ok := ChildPage(p.Cells[1])
	require.True(t, ok)
	assert.Equal(t, uint32(4), child)
	assert.Equal(t, int64(20), CellRowID(p.Cells[1]))
	assert.Nil(t, CellKey(p.Cells[1]))
}

func TestDecodePageIndexCells(t *testing.T) {
	data := buildPage(10, PageTypeIndexInterior, 13, [][]byte{
		indexInteriorCell(11, record.Text("Yellow"), 4),
	})

	p, err := DecodePage(10, data, testPageSize)
	require.NoError(t, err)
	cell, ok := p.Cells[0].(*IndexInteriorCell)
	require.True(t, ok)
	assert.Equal(t, uint32(11), cell.LeftChild)
	assert.Equal(t, int64(4), cell.RowID)
	assert.Equal(t, []record.Value{record.Text("Yellow")}, CellKey(cell))
}

func TestDecodePageUnsupportedType(t *testing.T) {
	data := buildPage(2, PageTypeTableLeaf, 0, nil)
	data[0] = 0x07

	_, err := DecodePage(2, data, testPageSize)
	assert.ErrorIs(t, err, ErrUnsupportedPageType)
}

func TestDecodePageBadPointer(t *testing.T) {
	data := buildPage(2, PageTypeTableLeaf, 0, [][]byte{tableLeafCell(1, record.Integer(5))})
	binary.BigEndian.PutUint16(data[leafHeaderSize:], 3)

	_, err := DecodePage(2, data, testPageSize)
	assert.ErrorIs(t, err, ErrCorruptPage)
}

func TestDecodePageOverflow(t *testing.T) {
	// payload size larger than the local limit of a 1024 byte page
	cell := varint.Append(nil, 2000)
	cell = varint.Append(cell, 1)
	cell = append(cell, make([]byte, 900)...)
	data := buildPage(2, PageTypeTableLeaf, 0, [][]byte{cell})

	_, err := DecodePage(2, data, testPageSize)
	assert.ErrorIs(t, err, ErrOverflowPayload)
}

func TestPageTypeString(t *testing.T) {
	assert.Equal(t, "table leaf", PageTypeTableLeaf.String())
	assert.Equal(t, "index interior", PageTypeIndexInterior.String())
	assert.Equal(t, "page type 0x07", PageType(7).String())
	assert.True(t, PageTypeIndexLeaf.IsIndex())
	assert.False(t, PageTypeTableInterior.IsIndex())
}
