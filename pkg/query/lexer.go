package query

import (
	"fmt"
	"strings"
	"unicode"
)

// singleChar maps one-byte punctuation and operators to their tokens
var singleChar = map[byte]TokenType{
	'-': TokenMinus,
	'+': TokenPlus,
	'*': TokenStar,
	'/': TokenSlash,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	';': TokenSemicolon,
	'.': TokenDot,
}

// Lexer tokenizes SQL input
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
	line    int
	column  int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// skipWhitespace skips spaces, tabs, newlines
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// twoChar builds a two character operator token
func (l *Lexer) twoChar(t TokenType) Token {
	ch := l.ch
	l.readChar()
	tok := Token{Type: t, Literal: string(ch) + string(l.ch), Line: l.line, Column: l.column - 1}
	l.readChar()
	return tok
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	var tok Token
	l.skipWhitespace()

	tok.Line = l.line
	tok.Column = l.column

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			tok = l.twoChar(TokenEq)
		} else {
			tok = newToken(TokenEq, l.ch, l.line, l.column)
			l.readChar()
		}
	case '!':
		if l.peekChar() == '=' {
			tok = l.twoChar(TokenNeq)
		} else {
			tok = newToken(TokenIllegal, l.ch, l.line, l.column)
			l.readChar()
		}
	case '<':
		switch l.peekChar() {
		case '=':
			tok = l.twoChar(TokenLte)
		case '>':
			tok = l.twoChar(TokenNeq)
		default:
			tok = newToken(TokenLt, l.ch, l.line, l.column)
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			tok = l.twoChar(TokenGte)
		} else {
			tok = newToken(TokenGt, l.ch, l.line, l.column)
			l.readChar()
		}
	case '\'':
		return l.readQuoted(TokenString, '\'')
	case '"':
		return l.readQuoted(TokenIdentifier, '"')
	case '`':
		return l.readQuoted(TokenIdentifier, '`')
	case '[':
		return l.readQuoted(TokenIdentifier, ']')
	case 0:
		if l.pos < len(l.input) {
			tok = newToken(TokenIllegal, l.ch, l.line, l.column)
			l.readChar()
			break
		}
		tok.Literal = ""
		tok.Type = TokenEOF
	default:
		if t, ok := singleChar[l.ch]; ok {
			tok = newToken(t, l.ch, l.line, l.column)
			l.readChar()
			return tok
		}
		if isLetter(l.ch) || l.ch == '_' {
			literal := l.readIdentifier()
			tok.Type = LookupKeyword(strings.ToUpper(literal))
			tok.Literal = literal
			tok.Line = l.line
			tok.Column = l.column - len(literal)
			return tok
		}
		if isDigit(l.ch) {
			tok.Type = TokenNumber
			tok.Literal = l.readNumber()
			tok.Line = l.line
			tok.Column = l.column - len(tok.Literal)
			return tok
		}
		tok = newToken(TokenIllegal, l.ch, l.line, l.column)
		l.readChar()
	}

	return tok
}

// readIdentifier reads an identifier (letters, digits, underscores)
func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readNumber reads a number (integer or float)
func (l *Lexer) readNumber() string {
	pos := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	// Scientific notation
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[pos:l.pos]
}

// readQuoted reads a quoted string or identifier. A doubled closing quote
// stands for itself. An unterminated quote yields an illegal token.
func (l *Lexer) readQuoted(t TokenType, closing byte) Token {
	tok := Token{Type: t, Line: l.line, Column: l.column}
	l.readChar() // consume opening quote

	var sb strings.Builder
	for {
		if l.ch == 0 && l.pos >= len(l.input) {
			tok.Type = TokenIllegal
			tok.Literal = sb.String()
			return tok
		}
		if l.ch == closing {
			if l.peekChar() == closing && closing != ']' {
				sb.WriteByte(closing)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			break
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	tok.Literal = sb.String()
	return tok
}

// isLetter checks if a character is a letter
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

// isDigit checks if a character is a digit
func isDigit(ch byte) bool {
	return unicode.IsDigit(rune(ch))
}

// newToken creates a new token
func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{
		Type:    tokenType,
		Literal: string(ch),
		Line:    line,
		Column:  column,
	}
}

// Tokenize tokenizes the entire input and returns all tokens
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token

	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
		if tok.Type == TokenIllegal {
			return nil, fmt.Errorf("%w: illegal token at line %d, column %d: %s",
				ErrSyntax, tok.Line, tok.Column, tok.Literal)
		}
	}

	return tokens, nil
}
