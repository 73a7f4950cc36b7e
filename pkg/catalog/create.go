package catalog

import (
	"fmt"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/record"
)

// tableConstraints start a definition that declares no column
var tableConstraints = map[string]bool{
	"constraint": true,
	"primary":    true,
	"foreign":    true,
	"unique":     true,
	"check":      true,
}

// ParseCreateTable extracts the column names and declared types from a
// CREATE TABLE statement. The name of each column is its first token and
// the type its second; quoted names may contain spaces.
func ParseCreateTable(sql string) ([]ColumnDef, error) {
	flat := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(sql)
	body, ok := columnList(flat)
	if !ok {
		return nil, fmt.Errorf("%w: no column list in %q", ErrSchemaParse, sql)
	}

	var columns []ColumnDef
	for _, def := range splitTopLevel(body) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		name, rest, err := splitColumnName(def)
		if err != nil {
			return nil, err
		}
		if tableConstraints[strings.ToLower(name)] && !isQuote(def[0]) {
			continue
		}

		col := ColumnDef{Name: name}
		if fields := strings.Fields(rest); len(fields) > 0 {
			typ := fields[0]
			if i := strings.IndexByte(typ, '('); i >= 0 {
				typ = typ[:i]
			}
			col.Type = record.ParseTypeTag(typ)
			lowered := strings.ToLower(rest)
			col.PrimaryKey = strings.Contains(lowered, "primary key")
			if i := strings.Index(lowered, "collate "); i >= 0 {
				if f := strings.Fields(lowered[i+len("collate "):]); len(f) > 0 {
					col.Collation = strings.Trim(f[0], "\"'`[],")
				}
			}
		}
		columns = append(columns, col)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns in %q", ErrSchemaParse, sql)
	}
	return columns, nil
}

// columnList returns the text between the first unquoted "(" and its
// matching ")". Quoted table names may contain parentheses.
func columnList(s string) (string, bool) {
	depth := 0
	var quote byte
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case isQuote(c):
			quote = closingQuote(c)
		case c == '(':
			if depth == 0 && start < 0 {
				start = i + 1
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 && start >= 0 {
				return s[start:i], true
			}
			if depth < 0 {
				return "", false
			}
		}
	}
	return "", false
}

// splitTopLevel splits s on commas that are outside parentheses and quotes
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case isQuote(c):
			quote = closingQuote(c)
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// splitColumnName separates the column name from the rest of a definition
func splitColumnName(def string) (string, string, error) {
	if isQuote(def[0]) {
		end := strings.IndexByte(def[1:], closingQuote(def[0]))
		if end < 0 {
			return "", "", fmt.Errorf("%w: unterminated quoted name in %q", ErrSchemaParse, def)
		}
		return def[1 : end+1], def[end+2:], nil
	}

	if i := strings.IndexAny(def, " \t"); i >= 0 {
		return def[:i], def[i+1:], nil
	}
	return def, "", nil
}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`' || c == '['
}

func closingQuote(c byte) byte {
	if c == '[' {
		return ']'
	}
	return c
}
