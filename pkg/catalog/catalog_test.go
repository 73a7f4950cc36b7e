package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltdb/sqlitescan/pkg/btree"
	"github.com/cobaltdb/sqlitescan/pkg/record"
)

var sampleEntries = []SchemaEntry{
	{"table", "apples", "apples", 2, "CREATE TABLE apples\n(\n\tid integer primary key autoincrement,\n\tname text,\n\tcolor text\n)"},
	{"table", "sqlite_sequence", "sqlite_sequence", 3, "CREATE TABLE sqlite_sequence(name,seq)"},
	{"table", "oranges", "oranges", 4, "CREATE TABLE oranges\n(\n\tid integer primary key autoincrement,\n\tname text,\n\tdescription text\n)"},
	{"index", "idx_apples_color", "apples", 5, "CREATE INDEX idx_apples_color ON apples (color)"},
	{"index", "idx_apples_name_desc", "apples", 6, "CREATE INDEX idx_apples_name_desc ON apples (name DESC)"},
	{"index", "sqlite_autoindex_oranges_1", "oranges", 7, ""},
	{"view", "red_apples", "red_apples", 0, "CREATE VIEW red_apples AS SELECT * FROM apples WHERE color = 'Red'"},
}

// fakeScanner serves schema entries as decoded rows.
type fakeScanner struct {
	entries []SchemaEntry
	err     error
	root    uint32
}

func (f *fakeScanner) Each(_ context.Context, root uint32, types []record.TypeTag, fn func(btree.Row) error) error {
	f.root = root
	if f.err != nil {
		return f.err
	}
	if len(types) != 5 {
		return errors.New("schema rows have five columns")
	}
	for i, e := range f.entries {
		row := btree.Row{RowID: int64(i + 1), Values: []record.Value{
			record.Text(e.Type), record.Text(e.Name), record.Text(e.TableName),
			record.Integer(int64(e.RootPage)), record.Text(e.SQL),
		}}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func TestLoad(t *testing.T) {
	scanner := &fakeScanner{entries: sampleEntries}

	c, err := Load(context.Background(), scanner)
	require.NoError(t, err)
	assert.Equal(t, uint32(SchemaPage), scanner.root)
	assert.Len(t, c.Entries(), len(sampleEntries))

	assert.Equal(t, []string{"apples", "oranges"}, c.TableNames())
	assert.Equal(t, 3, c.TableCount())

	apples, err := c.Table("APPLES")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), apples.RootPageID)
	assert.Equal(t, []string{"id", "name", "color"}, apples.ColumnNames())
	assert.Equal(t, []record.TypeTag{record.TypeInteger, record.TypeText, record.TypeText}, apples.Types())

	pos, err := apples.ColumnIndex("Color")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	_, err = apples.ColumnIndex("weight")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestLoadPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(), &fakeScanner{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestTableNotFound(t *testing.T) {
	c, err := New(sampleEntries)
	require.NoError(t, err)

	_, err = c.Table("pears")
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = c.Table("sqlite_sequence")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestIndexes(t *testing.T) {
	c, err := New(sampleEntries)
	require.NoError(t, err)

	assert.Len(t, c.Indexes("apples"), 2)
	require.Len(t, c.Indexes("oranges"), 1)
	assert.Equal(t, "sqlite_autoindex_oranges_1", c.Indexes("oranges")[0].Name)
	assert.Equal(t, uint32(7), c.Indexes("oranges")[0].RootPageID)

	idx, ok := c.IndexFor("apples", "color")
	require.True(t, ok)
	assert.Equal(t, "idx_apples_color", idx.Name)
	assert.Equal(t, uint32(5), idx.RootPageID)

	_, ok = c.IndexFor("apples", "name")
	assert.False(t, ok, "descending index must not be used")

	_, ok = c.IndexFor("oranges", "name")
	assert.False(t, ok)

	_, ok = c.IndexFor("pears", "color")
	assert.False(t, ok)

	_, ok = c.IndexFor("apples", "weight")
	assert.False(t, ok)
}

func TestIndexForCollation(t *testing.T) {
	c, err := New([]SchemaEntry{
		{"table", "people", "people", 2, "CREATE TABLE people (id integer, name text collate nocase, city text)"},
		{"index", "by_name", "people", 3, "CREATE INDEX by_name ON people (name)"},
		{"index", "by_city", "people", 4, "CREATE INDEX by_city ON people (city COLLATE NOCASE)"},
		{"index", "by_name_binary", "people", 5, "CREATE INDEX by_name_binary ON people (name COLLATE BINARY)"},
	})
	require.NoError(t, err)

	idx, ok := c.IndexFor("people", "name")
	require.True(t, ok)
	assert.Equal(t, "by_name_binary", idx.Name)

	_, ok = c.IndexFor("people", "city")
	assert.False(t, ok)
}

func TestNewSchemaErrors(t *testing.T) {
	_, err := New([]SchemaEntry{{"table", "bad", "bad", 2, "CREATE TABLE bad"}})
	assert.ErrorIs(t, err, ErrSchemaParse)

}

func TestUnparsableIndexIsUnusable(t *testing.T) {
	c, err := New([]SchemaEntry{
		{"table", "t", "t", 2, "CREATE TABLE t (id integer primary key, name text)"},
		{"index", "t_lower", "t", 3, "CREATE INDEX t_lower ON t (lower(name))"},
		{"index", "bad_idx", "t", 4, "CREATE INDEX bad_idx"},
	})
	require.NoError(t, err)

	idxs := c.Indexes("t")
	require.Len(t, idxs, 2)
	assert.Equal(t, "t_lower", idxs[0].Name)
	assert.Empty(t, idxs[0].Columns)
	assert.Equal(t, uint32(3), idxs[0].RootPageID)

	_, ok := c.IndexFor("t", "name")
	assert.False(t, ok)

	require.Len(t, c.Skipped(), 2)
	assert.ErrorIs(t, c.Skipped()[0], ErrSchemaParse)
	assert.Equal(t, []string{"t"}, c.TableNames())
}
