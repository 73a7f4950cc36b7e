package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/record"
)

// Predicate is a single column comparison taken from a WHERE clause.
type Predicate struct {
	Column  string
	Op      TokenType
	Literal record.Value
}

// String renders the predicate back as SQL.
func (p *Predicate) String() string {
	lit := p.Literal.String()
	if p.Literal.Kind() == record.KindText {
		lit = "'" + strings.ReplaceAll(lit, "'", "''") + "'"
	}
	return fmt.Sprintf("%s %s %s", p.Column, TokenTypeString(p.Op), lit)
}

// Match reports whether v satisfies the predicate. NULL never matches.
func (p *Predicate) Match(v record.Value) bool {
	if v.IsNull() {
		return false
	}
	c := record.Compare(v, p.Literal)
	switch p.Op {
	case TokenEq:
		return c == 0
	case TokenLt:
		return c < 0
	case TokenGt:
		return c > 0
	}
	return false
}

// Predicate returns the WHERE clause as a typed predicate, or nil when the
// statement has none. A literal on the left is moved to the right and the
// operator flipped.
func (s *SelectStmt) Predicate() (*Predicate, error) {
	if s.Where == nil {
		return nil, nil
	}
	bin, ok := s.Where.(*BinaryExpr)
	if !ok {
		return nil, fmt.Errorf("%w: WHERE must be a comparison", ErrSyntax)
	}

	col, lit, op := bin.Left, bin.Right, bin.Operator
	if _, isIdent := col.(*Identifier); !isIdent {
		col, lit = lit, col
		op = flip(op)
	}

	ident, ok := col.(*Identifier)
	if !ok {
		return nil, fmt.Errorf("%w: comparison needs a column", ErrSyntax)
	}
	value, err := literalValue(lit)
	if err != nil {
		return nil, err
	}

	return &Predicate{Column: ident.Name, Op: op, Literal: value}, nil
}

func flip(op TokenType) TokenType {
	switch op {
	case TokenLt:
		return TokenGt
	case TokenGt:
		return TokenLt
	}
	return op
}

func literalValue(e Expression) (record.Value, error) {
	switch lit := e.(type) {
	case *StringLiteral:
		return record.Text(lit.Value), nil
	case *NumberLiteral:
		if i, err := strconv.ParseInt(lit.Raw, 10, 64); err == nil {
			return record.Integer(i), nil
		}
		return record.Real(lit.Value), nil
	case *Identifier:
		return record.Value{}, fmt.Errorf("%w: comparing two columns", ErrUnsupportedOperator)
	}
	return record.Value{}, fmt.Errorf("%w: expected a literal", ErrSyntax)
}
