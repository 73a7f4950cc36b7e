package query

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenIdentifier
	TokenString
	TokenNumber

	// Keywords
	TokenSelect
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenAs
	TokenNull
	TokenCount
	TokenDistinct
	TokenOrder
	TokenGroup
	TokenLimit
	TokenJoin
	TokenLike
	TokenIn
	TokenBetween
	TokenIs

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenEq
	TokenNeq
	TokenLt
	TokenGt
	TokenLte
	TokenGte

	// Punctuation
	TokenLParen
	TokenRParen
	TokenComma
	TokenSemicolon
	TokenDot
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"SELECT":   TokenSelect,
	"FROM":     TokenFrom,
	"WHERE":    TokenWhere,
	"AND":      TokenAnd,
	"OR":       TokenOr,
	"NOT":      TokenNot,
	"AS":       TokenAs,
	"NULL":     TokenNull,
	"COUNT":    TokenCount,
	"DISTINCT": TokenDistinct,
	"ORDER":    TokenOrder,
	"GROUP":    TokenGroup,
	"LIMIT":    TokenLimit,
	"JOIN":     TokenJoin,
	"LIKE":     TokenLike,
	"IN":       TokenIn,
	"BETWEEN":  TokenBetween,
	"IS":       TokenIs,
}

// LookupKeyword checks if an identifier is a keyword
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdentifier
}

// tokenNames spells out the non-keyword tokens; keywords use their own text
var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenIllegal:    "ILLEGAL",
	TokenIdentifier: "IDENTIFIER",
	TokenString:     "STRING",
	TokenNumber:     "NUMBER",
	TokenPlus:       "+",
	TokenMinus:      "-",
	TokenStar:       "*",
	TokenSlash:      "/",
	TokenEq:         "=",
	TokenNeq:        "!=",
	TokenLt:         "<",
	TokenGt:         ">",
	TokenLte:        "<=",
	TokenGte:        ">=",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenComma:      ",",
	TokenSemicolon:  ";",
	TokenDot:        ".",
}

// TokenTypeString returns a string representation of a token type
func TokenTypeString(t TokenType) string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for kw, kt := range keywords {
		if kt == t {
			return kw
		}
	}
	return "UNKNOWN"
}
