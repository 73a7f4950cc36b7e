package query

// Node is the base interface for all AST nodes
type Node interface {
	nodeType() string
}

// Statement is the base interface for all SQL statements
type Statement interface {
	Node
	statementNode()
}

// Expression is the base interface for all expressions
type Expression interface {
	Node
	expressionNode()
}

// SelectStmt represents a SELECT statement
type SelectStmt struct {
	Columns []Expression
	From    *TableRef
	Where   Expression
}

func (s *SelectStmt) nodeType() string { return "SelectStmt" }
func (s *SelectStmt) statementNode()   {}

// TableRef represents a table reference in FROM
type TableRef struct {
	Name string
}

// Identifier represents a column name
type Identifier struct {
	Name string
}

func (e *Identifier) nodeType() string { return "Identifier" }
func (e *Identifier) expressionNode()  {}

// StringLiteral represents a string literal
type StringLiteral struct {
	Value string
}

func (e *StringLiteral) nodeType() string { return "StringLiteral" }
func (e *StringLiteral) expressionNode()  {}

// NumberLiteral represents a numeric literal. Raw keeps the source text so
// integers are not rounded through float64.
type NumberLiteral struct {
	Value float64
	Raw   string
}

func (e *NumberLiteral) nodeType() string { return "NumberLiteral" }
func (e *NumberLiteral) expressionNode()  {}

// BinaryExpr represents a comparison
type BinaryExpr struct {
	Left     Expression
	Operator TokenType
	Right    Expression
}

func (e *BinaryExpr) nodeType() string { return "BinaryExpr" }
func (e *BinaryExpr) expressionNode()  {}

// FunctionCall represents a function call such as COUNT(*)
type FunctionCall struct {
	Name string
	Args []Expression
}

func (e *FunctionCall) nodeType() string { return "FunctionCall" }
func (e *FunctionCall) expressionNode()  {}

// StarExpr represents * in a select list or COUNT(*)
type StarExpr struct{}

func (e *StarExpr) nodeType() string { return "StarExpr" }
func (e *StarExpr) expressionNode()  {}
