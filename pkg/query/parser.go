package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSyntax               = errors.New("syntax error")
	ErrUnsupportedStatement = errors.New("unsupported statement")
	ErrUnsupportedClause    = errors.New("unsupported clause")
	ErrUnsupportedOperator  = errors.New("unsupported operator")
	ErrMultiplePredicates   = errors.New("multiple predicates are not supported")
)

// Parser parses SQL tokens into an AST
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser for the given tokens
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
		pos:    0,
	}
}

// Parse parses the tokens and returns a statement
func (p *Parser) Parse() (Statement, error) {
	if p.current().Type == TokenEOF {
		return nil, fmt.Errorf("%w: empty statement", ErrSyntax)
	}
	if p.current().Type != TokenSelect {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStatement, p.current().Literal)
	}

	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}

	p.match(TokenSemicolon)
	if p.current().Type != TokenEOF {
		return nil, p.unexpected()
	}
	return stmt, nil
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// expect checks if the current token is of the expected type and advances
func (p *Parser) expect(t TokenType) (Token, error) {
	if p.current().Type != t {
		return Token{}, fmt.Errorf("%w: expected %s, got %q", ErrSyntax, TokenTypeString(t), p.current().Literal)
	}
	tok := p.current()
	p.advance()
	return tok, nil
}

// match checks if the current token matches and advances if so
func (p *Parser) match(t TokenType) bool {
	if p.current().Type == t {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) unexpected() error {
	tok := p.current()
	switch tok.Type {
	case TokenOrder, TokenGroup, TokenLimit, TokenJoin, TokenDistinct, TokenAs:
		return fmt.Errorf("%w: %s", ErrUnsupportedClause, strings.ToUpper(tok.Literal))
	case TokenEOF:
		return fmt.Errorf("%w: unexpected end of statement", ErrSyntax)
	}
	return fmt.Errorf("%w: unexpected token %q at line %d, column %d", ErrSyntax, tok.Literal, tok.Line, tok.Column)
}

// parseSelect parses a SELECT statement
func (p *Parser) parseSelect() (*SelectStmt, error) {
	stmt := &SelectStmt{}
	p.advance() // consume SELECT

	if p.current().Type == TokenDistinct {
		return nil, p.unexpected()
	}

	columns, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = columns

	if _, err := p.expect(TokenFrom); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	stmt.From = &TableRef{Name: tok.Literal}

	if p.match(TokenWhere) {
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	return stmt, nil
}

// parseSelectList parses the SELECT column list
func (p *Parser) parseSelectList() ([]Expression, error) {
	var columns []Expression

	for {
		expr, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		columns = append(columns, expr)

		if !p.match(TokenComma) {
			break
		}
	}

	return columns, nil
}

// parseSelectItem parses *, a column name or a function call
func (p *Parser) parseSelectItem() (Expression, error) {
	switch p.current().Type {
	case TokenStar:
		p.advance()
		return &StarExpr{}, nil
	case TokenIdentifier, TokenCount:
		return p.parseIdentifierOrFunction()
	}
	return nil, p.unexpected()
}

// parseWhere parses a single comparison and rejects compound predicates
func (p *Parser) parseWhere() (Expression, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	switch p.current().Type {
	case TokenAnd, TokenOr:
		return nil, fmt.Errorf("%w: %s", ErrMultiplePredicates, strings.ToUpper(p.current().Literal))
	}
	return expr, nil
}

// parseComparison parses operand op operand
func (p *Parser) parseComparison() (Expression, error) {
	if p.current().Type == TokenNot {
		return nil, fmt.Errorf("%w: NOT", ErrUnsupportedOperator)
	}

	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch p.current().Type {
	case TokenEq, TokenLt, TokenGt:
		op := p.current().Type
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: left, Operator: op, Right: right}, nil
	case TokenNeq, TokenLte, TokenGte, TokenLike, TokenIn, TokenBetween, TokenIs, TokenNot,
		TokenPlus, TokenMinus, TokenStar, TokenSlash:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, strings.ToUpper(p.current().Literal))
	}
	return nil, p.unexpected()
}

// parsePrimary parses an identifier or a literal
func (p *Parser) parsePrimary() (Expression, error) {
	switch p.current().Type {
	case TokenNumber:
		return p.parseNumber("")
	case TokenMinus:
		if p.peek().Type == TokenNumber {
			p.advance()
			return p.parseNumber("-")
		}
	case TokenString:
		tok := p.current()
		p.advance()
		return &StringLiteral{Value: tok.Literal}, nil
	case TokenIdentifier:
		return p.parseIdentifierOrFunction()
	}
	return nil, p.unexpected()
}

// parseNumber parses a number literal
func (p *Parser) parseNumber(sign string) (Expression, error) {
	tok := p.current()
	p.advance()

	raw := sign + tok.Literal
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %s", ErrSyntax, raw)
	}

	return &NumberLiteral{Value: val, Raw: raw}, nil
}

// parseIdentifierOrFunction parses an identifier or function call
func (p *Parser) parseIdentifierOrFunction() (Expression, error) {
	tok := p.current()
	p.advance()

	if p.current().Type == TokenLParen {
		return p.parseFunctionCall(tok.Literal)
	}
	if tok.Type != TokenIdentifier {
		return nil, fmt.Errorf("%w: expected ( after %s", ErrSyntax, strings.ToUpper(tok.Literal))
	}
	if p.current().Type == TokenDot {
		return nil, fmt.Errorf("%w: qualified column names", ErrUnsupportedClause)
	}

	return &Identifier{Name: tok.Literal}, nil
}

// parseFunctionCall parses a function call. Arguments are * or column names.
func (p *Parser) parseFunctionCall(name string) (Expression, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var args []Expression
	if p.current().Type != TokenRParen {
		for {
			arg, err := p.parseSelectItem()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if !p.match(TokenComma) {
				break
			}
		}
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &FunctionCall{Name: strings.ToUpper(name), Args: args}, nil
}

// Parse parses a single SQL statement
func Parse(sql string) (Statement, error) {
	tokens, err := Tokenize(sql)
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	return parser.Parse()
}
