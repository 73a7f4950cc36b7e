package wire

import (
	"github.com/vmihailenco/msgpack/v5"
)

// MsgType represents the type of a protocol message
type MsgType uint8

const (
	MsgQuery  MsgType = 0x01 // SQL query string
	MsgInfo   MsgType = 0x02 // Database summary request and response
	MsgResult MsgType = 0x10 // Query result rows
	MsgError  MsgType = 0x12 // Error response
	MsgPing   MsgType = 0x20
	MsgPong   MsgType = 0x21
)

// String returns the message type name
func (t MsgType) String() string {
	switch t {
	case MsgQuery:
		return "query"
	case MsgInfo:
		return "info"
	case MsgResult:
		return "result"
	case MsgError:
		return "error"
	case MsgPing:
		return "ping"
	case MsgPong:
		return "pong"
	}
	return "unknown"
}

// Error codes carried by ErrorMessage
const (
	CodeProtocol       = 1
	CodeDecode         = 2
	CodeUnknownMessage = 3
	CodeQuery          = 4
	CodeTableNotFound  = 10
	CodeColumnNotFound = 11
	CodeTypeMismatch   = 12
)

// QueryMessage represents a query request
type QueryMessage struct {
	SQL string `msgpack:"sql"`
}

// InfoMessage describes the served database
type InfoMessage struct {
	PageSize   uint32   `msgpack:"page_size"`
	PageCount  uint32   `msgpack:"page_count"`
	TableCount int      `msgpack:"table_count"`
	Tables     []string `msgpack:"tables"`
}

// ResultMessage represents a query result
type ResultMessage struct {
	Columns []string        `msgpack:"cols"`
	Rows    [][]interface{} `msgpack:"rows"`
	Count   int64           `msgpack:"count"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    int    `msgpack:"code"`
	Message string `msgpack:"message"`
}

// Error implements error so clients can return the message directly
func (e *ErrorMessage) Error() string {
	return e.Message
}

// Encode encodes a message using MessagePack
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode decodes a message using MessagePack
func Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// NewQueryMessage creates a new query message
func NewQueryMessage(sql string) *QueryMessage {
	return &QueryMessage{SQL: sql}
}

// NewResultMessage creates a new result message
func NewResultMessage(columns []string, rows [][]interface{}) *ResultMessage {
	return &ResultMessage{
		Columns: columns,
		Rows:    rows,
		Count:   int64(len(rows)),
	}
}

// NewErrorMessage creates a new error message
func NewErrorMessage(code int, message string) *ErrorMessage {
	return &ErrorMessage{
		Code:    code,
		Message: message,
	}
}
