package btree

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cobaltdb/sqlitescan/pkg/record"
	"github.com/cobaltdb/sqlitescan/pkg/varint"
)

const testPageSize = 1024

// buildPage lays out a B-tree page: header at the base offset, the cell
// pointer array after it and the cells packed against the end of the page.
func buildPage(pgno uint32, typ PageType, right uint32, cells [][]byte) []byte {
	data := make([]byte, testPageSize)
	base := BaseOffset(pgno)

	hdrSize := leafHeaderSize
	if typ.IsInterior() {
		hdrSize = interiorHeaderSize
	}

	data[base] = byte(typ)
	binary.BigEndian.PutUint16(data[base+pageOffsetCellCount:], uint16(len(cells)))

	end := testPageSize
	for i, c := range cells {
		end -= len(c)
		copy(data[end:], c)
		binary.BigEndian.PutUint16(data[base+hdrSize+2*i:], uint16(end))
	}
	binary.BigEndian.PutUint16(data[base+pageOffsetCellStart:], uint16(end))
	if typ.IsInterior() {
		binary.BigEndian.PutUint32(data[base+pageOffsetRightChild:], right)
	}
	return data
}

func tableLeafCell(rowid int64, values ...record.Value) []byte {
	payload := record.Encode(values)
	buf := varint.Append(nil, uint64(len(payload)))
	buf = varint.Append(buf, uint64(rowid))
	return append(buf, payload...)
}

func tableInteriorCell(child uint32, rowid int64) []byte {
	buf := binary.BigEndian.AppendUint32(nil, child)
	return varint.Append(buf, uint64(rowid))
}

func indexLeafCell(key record.Value, rowid int64) []byte {
	payload := record.Encode([]record.Value{key, record.Integer(rowid)})
	buf := varint.Append(nil, uint64(len(payload)))
	return append(buf, payload...)
}

func indexInteriorCell(child uint32, key record.Value, rowid int64) []byte {
	buf := binary.BigEndian.AppendUint32(nil, child)
	return append(buf, indexLeafCell(key, rowid)...)
}

// memSource serves pages from a map and records which pages were read.
type memSource struct {
	mu    sync.Mutex
	pages map[uint32][]byte
	reads []uint32
}

func newMemSource() *memSource {
	return &memSource{pages: make(map[uint32][]byte)}
}

func (s *memSource) add(pgno uint32, data []byte) {
	s.pages[pgno] = data
}

func (s *memSource) ReadPage(_ context.Context, pgno uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, pgno)
	data, ok := s.pages[pgno]
	if !ok {
		return nil, fmt.Errorf("page %d not found", pgno)
	}
	return data, nil
}

func (s *memSource) resetReads() {
	s.mu.Lock()
	s.reads = nil
	s.mu.Unlock()
}

var fruitTypes = []record.TypeTag{record.TypeText, record.TypeText}

// fruitTree builds a two-level table tree rooted at page 2 with rowids 1..6
// spread over three leaves.
func fruitTree() *memSource {
	src := newMemSource()
	src.add(2, buildPage(2, PageTypeTableInterior, 5, [][]byte{
		tableInteriorCell(3, 2),
		tableInteriorCell(4, 4),
	}))
	src.add(3, buildPage(3, PageTypeTableLeaf, 0, [][]byte{
		tableLeafCell(1, record.Text("Granny Smith"), record.Text("Light Green")),
		tableLeafCell(2, record.Text("Fuji"), record.Text("Red")),
	}))
	src.add(4, buildPage(4, PageTypeTableLeaf, 0, [][]byte{
		tableLeafCell(3, record.Text("Honeycrisp"), record.Text("Blush Red")),
		tableLeafCell(4, record.Text("Golden Delicious"), record.Text("Yellow")),
	}))
	src.add(5, buildPage(5, PageTypeTableLeaf, 0, [][]byte{
		tableLeafCell(5, record.Text("Mandarin"), record.Text("Orange")),
		tableLeafCell(6, record.Text("Lemon"), record.Text("Yellow")),
	}))
	return src
}

// colorIndex builds an index tree rooted at page 10 keyed on text values:
// leaf 11 holds (a,1) (b,1); separator (b,2); leaf 12 holds (b,3) (c,4);
// separator (d,5); right-most leaf 13 holds (d,6) (e,7).
func colorIndex(src *memSource) {
	src.add(10, buildPage(10, PageTypeIndexInterior, 13, [][]byte{
		indexInteriorCell(11, record.Text("b"), 2),
		indexInteriorCell(12, record.Text("d"), 5),
	}))
	src.add(11, buildPage(11, PageTypeIndexLeaf, 0, [][]byte{
		indexLeafCell(record.Text("a"), 1),
		indexLeafCell(record.Text("b"), 1),
	}))
	src.add(12, buildPage(12, PageTypeIndexLeaf, 0, [][]byte{
		indexLeafCell(record.Text("b"), 3),
		indexLeafCell(record.Text("c"), 4),
	}))
	src.add(13, buildPage(13, PageTypeIndexLeaf, 0, [][]byte{
		indexLeafCell(record.Text("d"), 6),
		indexLeafCell(record.Text("e"), 7),
	}))
}
