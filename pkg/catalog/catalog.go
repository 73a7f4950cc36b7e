package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/btree"
	"github.com/cobaltdb/sqlitescan/pkg/record"
)

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrColumnNotFound = errors.New("column not found")
	ErrSchemaParse    = errors.New("schema parse error")
)

// SchemaPage is the root page of the schema table
const SchemaPage = 1

// RowIDColumn names the rowid in queries against tables that declare no
// column of that name
const RowIDColumn = "id"

// sequenceTable is the bookkeeping table maintained for AUTOINCREMENT
const sequenceTable = "sqlite_sequence"

// schemaTypes are the column types of the schema table:
// type, name, tbl_name, rootpage, sql
var schemaTypes = []record.TypeTag{
	record.TypeText, record.TypeText, record.TypeText, record.TypeInteger, record.TypeText,
}

// SchemaEntry is one row of the schema table
type SchemaEntry struct {
	Type      string
	Name      string
	TableName string
	RootPage  uint32
	SQL       string
}

// ColumnDef represents a column definition
type ColumnDef struct {
	Name       string
	Type       record.TypeTag
	PrimaryKey bool
	Collation  string
}

// IsRowIDAlias reports whether the column is an INTEGER PRIMARY KEY. Such a
// column stores NULL in the record and reads back as the rowid.
func (c ColumnDef) IsRowIDAlias() bool {
	return c.PrimaryKey && c.Type == record.TypeInteger
}

// TableDef represents a table definition
type TableDef struct {
	Name       string
	RootPageID uint32
	Columns    []ColumnDef
	SQL        string
}

// ColumnIndex returns the position of the named column, matched
// case-insensitively
func (t *TableDef) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, t.Name, name)
}

// Types returns the declared column types in order
func (t *TableDef) Types() []record.TypeTag {
	types := make([]record.TypeTag, len(t.Columns))
	for i, c := range t.Columns {
		types[i] = c.Type
	}
	return types
}

// ColumnNames returns the column names in order
func (t *TableDef) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IndexDef represents an index definition
type IndexDef struct {
	Name       string
	TableName  string
	Columns    []string
	Descending []bool
	Collations []string
	Unique     bool
	Partial    bool
	RootPageID uint32
}

// RowScanner decodes the rows of a table tree
type RowScanner interface {
	Each(ctx context.Context, root uint32, types []record.TypeTag, fn func(btree.Row) error) error
}

// Catalog holds the schema of a database file
type Catalog struct {
	entries []SchemaEntry
	tables  map[string]*TableDef
	order   []string
	indexes map[string][]*IndexDef
	skipped []error
}

// Load reads the schema table rooted at page 1
func Load(ctx context.Context, scanner RowScanner) (*Catalog, error) {
	var entries []SchemaEntry
	err := scanner.Each(ctx, SchemaPage, schemaTypes, func(r btree.Row) error {
		entries = append(entries, SchemaEntry{
			Type:      r.Values[0].Str(),
			Name:      r.Values[1].Str(),
			TableName: r.Values[2].Str(),
			RootPage:  uint32(r.Values[3].Int()),
			SQL:       r.Values[4].Str(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return New(entries)
}

// New builds a catalog from schema entries
func New(entries []SchemaEntry) (*Catalog, error) {
	c := &Catalog{
		entries: entries,
		tables:  make(map[string]*TableDef),
		indexes: make(map[string][]*IndexDef),
	}

	for _, e := range entries {
		switch e.Type {
		case "table":
			if err := c.addTable(e); err != nil {
				return nil, err
			}
		case "index":
			if err := c.addIndex(e); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Catalog) addTable(e SchemaEntry) error {
	c.order = append(c.order, e.Name)
	if e.Name == sequenceTable {
		return nil
	}

	columns, err := ParseCreateTable(e.SQL)
	if err != nil {
		return fmt.Errorf("table %s: %w", e.Name, err)
	}
	c.tables[strings.ToLower(e.Name)] = &TableDef{
		Name:       e.Name,
		RootPageID: e.RootPage,
		Columns:    columns,
		SQL:        e.SQL,
	}
	return nil
}

func (c *Catalog) addIndex(e SchemaEntry) error {
	idx := &IndexDef{Name: e.Name, TableName: e.TableName}
	// auto-indexes and expression indexes keep no columns and stay unusable
	// for lookups
	if e.SQL != "" {
		parsed, err := ParseCreateIndex(e.SQL)
		if err != nil {
			c.skipped = append(c.skipped, fmt.Errorf("index %s: %w", e.Name, err))
		} else {
			idx = parsed
			idx.Name = e.Name
			idx.TableName = e.TableName
		}
	}
	idx.RootPageID = e.RootPage

	key := strings.ToLower(e.TableName)
	c.indexes[key] = append(c.indexes[key], idx)
	return nil
}

// Entries returns the raw schema rows in page order
func (c *Catalog) Entries() []SchemaEntry {
	return c.entries
}

// Table returns the named table, matched case-insensitively
func (c *Catalog) Table(name string) (*TableDef, error) {
	t, ok := c.tables[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// TableNames returns user table names in schema order, without the
// AUTOINCREMENT bookkeeping table
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.order))
	for _, n := range c.order {
		if n != sequenceTable {
			names = append(names, n)
		}
	}
	return names
}

// TableCount returns the number of schema rows of type table
func (c *Catalog) TableCount() int {
	return len(c.order)
}

// Skipped returns the parse errors of index statements that were recorded
// without columns
func (c *Catalog) Skipped() []error {
	return c.skipped
}

// Indexes returns the indexes of a table
func (c *Catalog) Indexes(table string) []*IndexDef {
	return c.indexes[strings.ToLower(table)]
}

// IndexFor returns an index whose leading column is column and whose B-tree
// order matches value order, so it can answer equality lookups
func (c *Catalog) IndexFor(table, column string) (*IndexDef, bool) {
	t, err := c.Table(table)
	if err != nil {
		return nil, false
	}
	pos, err := t.ColumnIndex(column)
	if err != nil {
		return nil, false
	}
	declared := t.Columns[pos].Collation

	for _, idx := range c.Indexes(table) {
		if len(idx.Columns) == 0 || idx.Partial || idx.RootPageID == 0 {
			continue
		}
		if !strings.EqualFold(idx.Columns[0], column) || idx.Descending[0] {
			continue
		}
		collation := idx.Collations[0]
		if collation == "" {
			collation = declared
		}
		if collation != "" && collation != "binary" {
			continue
		}
		return idx, true
	}
	return nil, false
}
