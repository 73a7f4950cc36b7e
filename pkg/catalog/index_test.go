package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateIndex(t *testing.T) {
	idx, err := ParseCreateIndex("CREATE INDEX idx_companies_country on companies (country)")
	require.NoError(t, err)
	assert.Equal(t, "idx_companies_country", idx.Name)
	assert.Equal(t, "companies", idx.TableName)
	assert.Equal(t, []string{"country"}, idx.Columns)
	assert.False(t, idx.Unique)
	assert.False(t, idx.Partial)
	assert.Equal(t, []bool{false}, idx.Descending)
}

func TestParseCreateIndexVariants(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		table    string
		columns  []string
		unique   bool
		partial  bool
		desc     []bool
		collates []string
	}{
		{
			name:     "unique if not exists",
			sql:      "create unique index if not exists main.by_name ON \"people\" (name COLLATE NOCASE, age DESC);",
			table:    "people",
			columns:  []string{"name", "age"},
			unique:   true,
			desc:     []bool{false, true},
			collates: []string{"nocase", ""},
		},
		{
			name:     "quoted column",
			sql:      "CREATE INDEX [by eye] ON heroes(`eye color` ASC)",
			table:    "heroes",
			columns:  []string{"eye color"},
			desc:     []bool{false},
			collates: []string{""},
		},
		{
			name:     "partial",
			sql:      "CREATE INDEX active_users ON users (email) WHERE deleted_at = 0 AND name != 'x'",
			table:    "users",
			columns:  []string{"email"},
			partial:  true,
			desc:     []bool{false},
			collates: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := ParseCreateIndex(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.table, idx.TableName)
			assert.Equal(t, tt.columns, idx.Columns)
			assert.Equal(t, tt.unique, idx.Unique)
			assert.Equal(t, tt.partial, idx.Partial)
			assert.Equal(t, tt.desc, idx.Descending)
			assert.Equal(t, tt.collates, idx.Collations)
		})
	}
}

func TestParseCreateIndexErrors(t *testing.T) {
	for _, sql := range []string{
		"",
		"CREATE TABLE t (a)",
		"CREATE INDEX i ON t",
		"CREATE INDEX i ON t ()",
	} {
		_, err := ParseCreateIndex(sql)
		assert.ErrorIs(t, err, ErrSchemaParse, "sql %q", sql)
	}
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a", unquote("a"))
	assert.Equal(t, `say "hi"`, unquote(`"say ""hi"""`))
	assert.Equal(t, "eye color", unquote("[eye color]"))
	assert.Equal(t, "x", unquote("`x`"))
}
