package btree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cobaltdb/sqlitescan/pkg/record"
)

// DefaultMaxDepth bounds recursion. Real trees are a handful of levels deep,
// so anything deeper is treated as a cycle.
const DefaultMaxDepth = 64

// ErrCorruptTree is returned when a tree's structure is inconsistent: it is
// too deep, points at page 0, or mixes table and index pages
var ErrCorruptTree = errors.New("corrupt b-tree")

// PageSource fetches raw pages on demand
type PageSource interface {
	ReadPage(ctx context.Context, pgno uint32) ([]byte, error)
}

// Config configures a Walker
type Config struct {
	// UsableSize is the page size minus reserved bytes
	UsableSize int
	// MaxDepth bounds the number of levels below the root; 0 means DefaultMaxDepth
	MaxDepth int
	Logger   *slog.Logger
}

// Walker traverses table and index B-trees read through a PageSource
type Walker struct {
	src      PageSource
	usable   int
	maxDepth int
	logger   *slog.Logger
}

// Row is a table row: its rowid and its decoded column values
type Row struct {
	RowID  int64
	Values []record.Value
}

// NewWalker creates a walker reading pages from src
func NewWalker(src PageSource, cfg Config) *Walker {
	w := &Walker{
		src:      src,
		usable:   cfg.UsableSize,
		maxDepth: cfg.MaxDepth,
		logger:   cfg.Logger,
	}
	if w.maxDepth <= 0 {
		w.maxDepth = DefaultMaxDepth
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Page fetches and decodes a single page
func (w *Walker) Page(ctx context.Context, pgno uint32) (*Page, error) {
	return w.fetch(ctx, pgno, 0)
}

func (w *Walker) fetch(ctx context.Context, pgno uint32, depth int) (*Page, error) {
	if depth > w.maxDepth {
		return nil, fmt.Errorf("%w: depth exceeds %d at page %d", ErrCorruptTree, w.maxDepth, pgno)
	}
	if pgno == 0 {
		return nil, fmt.Errorf("%w: reference to page 0", ErrCorruptTree)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := w.src.ReadPage(ctx, pgno)
	if err != nil {
		return nil, err
	}
	p, err := DecodePage(pgno, data, w.usable)
	if err != nil {
		return nil, err
	}
	w.logger.DebugContext(ctx, "page decoded",
		"page", pgno, "type", p.Header.Type.String(), "cells", p.Header.CellCount, "depth", depth)
	return p, nil
}

func (w *Walker) fetchTable(ctx context.Context, pgno uint32, depth int) (*Page, error) {
	p, err := w.fetch(ctx, pgno, depth)
	if err != nil {
		return nil, err
	}
	if p.Header.IsIndex() {
		return nil, fmt.Errorf("%w: %s page %d in a table tree", ErrCorruptTree, p.Header.Type, pgno)
	}
	return p, nil
}

func (w *Walker) fetchIndex(ctx context.Context, pgno uint32, depth int) (*Page, error) {
	p, err := w.fetch(ctx, pgno, depth)
	if err != nil {
		return nil, err
	}
	if !p.Header.IsIndex() {
		return nil, fmt.Errorf("%w: %s page %d in an index tree", ErrCorruptTree, p.Header.Type, pgno)
	}
	return p, nil
}

// EachCell calls fn for every leaf cell of the table tree rooted at root, in
// ascending rowid order
func (w *Walker) EachCell(ctx context.Context, root uint32, fn func(*TableLeafCell) error) error {
	return w.walkTable(ctx, root, 0, fn)
}

func (w *Walker) walkTable(ctx context.Context, pgno uint32, depth int, fn func(*TableLeafCell) error) error {
	p, err := w.fetchTable(ctx, pgno, depth)
	if err != nil {
		return err
	}

	for _, c := range p.Cells {
		switch c := c.(type) {
		case *TableLeafCell:
			if err := fn(c); err != nil {
				return err
			}
		case *TableInteriorCell:
			if err := w.walkTable(ctx, c.LeftChild, depth+1, fn); err != nil {
				return err
			}
		}
	}
	if p.Header.IsInterior() {
		return w.walkTable(ctx, p.Header.RightChild, depth+1, fn)
	}
	return nil
}

// Each decodes every row of the table tree rooted at root against the column
// types and passes it to fn
func (w *Walker) Each(ctx context.Context, root uint32, types []record.TypeTag, fn func(Row) error) error {
	return w.EachCell(ctx, root, func(c *TableLeafCell) error {
		values, err := record.Decode(c.Payload, types)
		if err != nil {
			return fmt.Errorf("rowid %d: %w", c.RowID, err)
		}
		return fn(Row{RowID: c.RowID, Values: values})
	})
}

// ScanAll returns every row of the table tree rooted at root
func (w *Walker) ScanAll(ctx context.Context, root uint32, types []record.TypeTag) ([]Row, error) {
	var rows []Row
	err := w.Each(ctx, root, types, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of rows in the table tree rooted at root by
// summing the cell counts of its leaves
func (w *Walker) Count(ctx context.Context, root uint32) (int, error) {
	return w.count(ctx, root, 0)
}

func (w *Walker) count(ctx context.Context, pgno uint32, depth int) (int, error) {
	p, err := w.fetchTable(ctx, pgno, depth)
	if err != nil {
		return 0, err
	}
	if !p.Header.IsInterior() {
		return int(p.Header.CellCount), nil
	}

	total := 0
	children := make([]uint32, 0, len(p.Cells)+1)
	for _, c := range p.Cells {
		child, _ := ChildPage(c)
		children = append(children, child)
	}
	children = append(children, p.Header.RightChild)
	for _, child := range children {
		n, err := w.count(ctx, child, depth+1)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Lookup finds the row with the given rowid by descending the table tree
func (w *Walker) Lookup(ctx context.Context, root uint32, rowid int64, types []record.TypeTag) (Row, bool, error) {
	pgno := root
	for depth := 0; ; depth++ {
		p, err := w.fetchTable(ctx, pgno, depth)
		if err != nil {
			return Row{}, false, err
		}

		i := sort.Search(len(p.Cells), func(i int) bool {
			return CellRowID(p.Cells[i]) >= rowid
		})

		if p.Header.IsInterior() {
			if i < len(p.Cells) {
				pgno, _ = ChildPage(p.Cells[i])
			} else {
				pgno = p.Header.RightChild
			}
			continue
		}

		if i == len(p.Cells) {
			return Row{}, false, nil
		}
		leaf := p.Cells[i].(*TableLeafCell)
		if leaf.RowID != rowid {
			return Row{}, false, nil
		}
		values, err := record.Decode(leaf.Payload, types)
		if err != nil {
			return Row{}, false, fmt.Errorf("rowid %d: %w", rowid, err)
		}
		return Row{RowID: rowid, Values: values}, true, nil
	}
}

// ScanBound returns the rowids of index entries whose first column equals
// key, in index order. Subtrees that cannot hold key are skipped.
func (w *Walker) ScanBound(ctx context.Context, root uint32, key record.Value) ([]int64, error) {
	var rowids []int64
	if err := w.seek(ctx, root, 0, key, &rowids); err != nil {
		return nil, err
	}
	return rowids, nil
}

func (w *Walker) seek(ctx context.Context, pgno uint32, depth int, key record.Value, out *[]int64) error {
	p, err := w.fetchIndex(ctx, pgno, depth)
	if err != nil {
		return err
	}

	want := []record.Value{key}
	for _, c := range p.Cells {
		cmp := record.CompareKeys(want, CellKey(c))
		child, interior := ChildPage(c)
		if !interior {
			if cmp < 0 {
				return nil
			}
			if cmp == 0 {
				*out = append(*out, CellRowID(c))
			}
			continue
		}
		if cmp > 0 {
			continue
		}
		if err := w.seek(ctx, child, depth+1, key, out); err != nil {
			return err
		}
		if cmp < 0 {
			return nil
		}
		*out = append(*out, CellRowID(c))
	}
	if p.Header.IsInterior() {
		return w.seek(ctx, p.Header.RightChild, depth+1, key, out)
	}
	return nil
}

// Visit calls fn for every page of the tree rooted at root, parents before
// children
func (w *Walker) Visit(ctx context.Context, root uint32, fn func(p *Page, depth int) error) error {
	return w.visit(ctx, root, 0, fn)
}

func (w *Walker) visit(ctx context.Context, pgno uint32, depth int, fn func(*Page, int) error) error {
	p, err := w.fetch(ctx, pgno, depth)
	if err != nil {
		return err
	}
	if err := fn(p, depth); err != nil {
		return err
	}
	if !p.Header.IsInterior() {
		return nil
	}
	for _, c := range p.Cells {
		child, _ := ChildPage(c)
		if err := w.visit(ctx, child, depth+1, fn); err != nil {
			return err
		}
	}
	return w.visit(ctx, p.Header.RightChild, depth+1, fn)
}
