package catalog

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// createIndexGrammar is the participle grammar for CREATE INDEX statements:
//
//	CREATE [UNIQUE] INDEX [IF NOT EXISTS] [schema.]name ON table
//	    ( column [COLLATE name] [ASC|DESC] {, ...} ) [WHERE expr]
//
//nolint:govet // participle grammar tags are not standard struct tags
type createIndexGrammar struct {
	Unique      bool               `parser:"\"CREATE\" @\"UNIQUE\"? \"INDEX\""`
	IfNotExists bool               `parser:"@(\"IF\" \"NOT\" \"EXISTS\")?"`
	Name        *qualifiedName     `parser:"@@"`
	Table       string             `parser:"\"ON\" @(Ident | Quoted)"`
	Columns     []*indexedColumnGr `parser:"\"(\" @@ ( \",\" @@ )* \")\""`
	Where       []string           `parser:"( \"WHERE\" @(Ident | Quoted | String | Number | Operator | Punct)+ )?"`
	Semicolon   bool               `parser:"@\";\"?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type qualifiedName struct {
	First  string `parser:"@(Ident | Quoted)"`
	Second string `parser:"( \".\" @(Ident | Quoted) )?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type indexedColumnGr struct {
	Name    string `parser:"@(Ident | Quoted)"`
	Collate string `parser:"( \"COLLATE\" @Ident )?"`
	Order   string `parser:"@(\"ASC\" | \"DESC\")?"`
}

var indexLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Quoted", Pattern: "\"(?:[^\"]|\"\")*\"|`[^`]*`|\\[[^\\]]*\\]"},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Operator", Pattern: `<>|<=|>=|!=|==|[-+*/%<>=|&]`},
	{Name: "Punct", Pattern: `[(),.;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var indexParser = participle.MustBuild[createIndexGrammar](
	participle.Lexer(indexLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
)

// ParseCreateIndex parses a CREATE INDEX statement into an index definition.
// The root page is not part of the statement and is left zero.
func ParseCreateIndex(sql string) (*IndexDef, error) {
	g, err := indexParser.ParseString("", sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaParse, err)
	}

	name := g.Name.First
	if g.Name.Second != "" {
		name = g.Name.Second
	}

	idx := &IndexDef{
		Name:      unquote(name),
		TableName: unquote(g.Table),
		Unique:    g.Unique,
		Partial:   len(g.Where) > 0,
	}
	for _, c := range g.Columns {
		idx.Columns = append(idx.Columns, unquote(c.Name))
		idx.Descending = append(idx.Descending, strings.EqualFold(c.Order, "DESC"))
		idx.Collations = append(idx.Collations, strings.ToLower(c.Collate))
	}
	return idx, nil
}

// unquote strips identifier quoting: "x", `x` or [x]
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch s[0] {
	case '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case '`', '[':
		return s[1 : len(s)-1]
	}
	return s
}
