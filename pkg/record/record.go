// Package record decodes and encodes the row record format stored in B-tree
// cell payloads.
//
// A record is a header followed by a body. The header starts with a varint
// holding the header size in bytes (itself included), followed by one serial
// type varint per column. The body holds the column values back to back, each
// sized by its serial type.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cobaltdb/sqlitescan/pkg/varint"
)

var (
	// ErrMalformedRecord is returned when a record header or body is inconsistent
	// with the payload it was read from.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnsupportedColumnType is returned when a column's declared type is not
	// one the decoder understands.
	ErrUnsupportedColumnType = errors.New("unsupported column type")
)

// TypeTag is a declared column type, normalised to lower case.
type TypeTag string

// Supported column types.
const (
	TypeInteger TypeTag = "integer"
	TypeText    TypeTag = "text"
	TypeReal    TypeTag = "real"
)

// ParseTypeTag normalises a declared type name.
func ParseTypeTag(decl string) TypeTag {
	return TypeTag(strings.ToLower(strings.TrimSpace(decl)))
}

// Supported reports whether values of this type can be decoded.
func (t TypeTag) Supported() bool {
	switch t {
	case TypeInteger, TypeText, TypeReal:
		return true
	}
	return false
}

// Numeric reports whether the type holds numbers.
func (t TypeTag) Numeric() bool {
	return t == TypeInteger || t == TypeReal
}

// Serial type codes with special meaning.
const (
	serialNull  = 0
	serialFloat = 7
	serialZero  = 8
	serialOne   = 9
)

// SerialLen returns the number of body bytes used by a value of serial type st.
func SerialLen(st uint64) (int, error) {
	switch {
	case st == serialNull, st == serialZero, st == serialOne:
		return 0, nil
	case st <= 4:
		return int(st), nil
	case st == 5:
		return 6, nil
	case st == 6, st == serialFloat:
		return 8, nil
	case st == 10, st == 11:
		return 0, fmt.Errorf("%w: reserved serial type %d", ErrMalformedRecord, st)
	case st%2 == 0:
		return int((st - 12) / 2), nil
	default:
		return int((st - 13) / 2), nil
	}
}

func isTextSerial(st uint64) bool { return st >= 13 && st%2 == 1 }
func isBlobSerial(st uint64) bool { return st >= 12 && st%2 == 0 }
func isIntSerial(st uint64) bool {
	return (st >= 1 && st <= 6) || st == serialZero || st == serialOne
}

// header reads the serial types of a record and returns them together with
// the offset of the record body.
func header(payload []byte) ([]uint64, int, error) {
	size, n, err := varint.Decode(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: header size: %v", ErrMalformedRecord, err)
	}
	if size < uint64(n) || size > uint64(len(payload)) {
		return nil, 0, fmt.Errorf("%w: header size %d outside payload of %d bytes",
			ErrMalformedRecord, size, len(payload))
	}

	end := int(size)
	serials := make([]uint64, 0, end-n)
	for cursor := n; cursor < end; {
		st, m, err := varint.Decode(payload[cursor:end])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: serial type at %d: %v", ErrMalformedRecord, cursor, err)
		}
		serials = append(serials, st)
		cursor += m
	}
	return serials, end, nil
}

// Decode decodes a record against the declared column types of a table.
// Columns missing from the record header decode as serial type 0, which is
// how rows written before an ADD COLUMN appear.
func Decode(payload []byte, types []TypeTag) ([]Value, error) {
	for _, t := range types {
		if !t.Supported() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedColumnType, string(t))
		}
	}

	serials, offset, err := header(payload)
	if err != nil {
		return nil, err
	}

	values := make([]Value, len(types))
	for i, t := range types {
		var st uint64
		if i < len(serials) {
			st = serials[i]
		}
		field, next, err := slice(payload, offset, st)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		offset = next

		v, err := decodeTyped(t, st, field)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// DecodeSerial decodes a record using only its serial types. Index records,
// which carry no declared schema, are decoded this way.
func DecodeSerial(payload []byte) ([]Value, error) {
	serials, offset, err := header(payload)
	if err != nil {
		return nil, err
	}

	values := make([]Value, len(serials))
	for i, st := range serials {
		field, next, err := slice(payload, offset, st)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		offset = next

		switch {
		case st == serialNull:
			values[i] = Null()
		case isIntSerial(st):
			values[i] = Integer(decodeInt(st, field))
		case st == serialFloat:
			values[i] = Real(math.Float64frombits(binary.BigEndian.Uint64(field)))
		case isTextSerial(st):
			values[i] = Text(string(field))
		default:
			return nil, fmt.Errorf("column %d: %w: blob", i, ErrUnsupportedColumnType)
		}
	}
	return values, nil
}

func slice(payload []byte, offset int, st uint64) ([]byte, int, error) {
	n, err := SerialLen(st)
	if err != nil {
		return nil, 0, err
	}
	end := offset + n
	if end > len(payload) {
		return nil, 0, fmt.Errorf("%w: value of %d bytes at offset %d exceeds payload of %d bytes",
			ErrMalformedRecord, n, offset, len(payload))
	}
	return payload[offset:end], end, nil
}

func decodeTyped(t TypeTag, st uint64, field []byte) (Value, error) {
	switch t {
	case TypeText:
		switch {
		case st == serialNull:
			return Text(""), nil
		case isTextSerial(st):
			return Text(string(field)), nil
		}
	case TypeInteger:
		switch {
		case st == serialNull:
			return Integer(0), nil
		case isIntSerial(st):
			return Integer(decodeInt(st, field)), nil
		case st == serialFloat:
			return Real(math.Float64frombits(binary.BigEndian.Uint64(field))), nil
		}
	case TypeReal:
		switch {
		case st == serialNull:
			return Real(0), nil
		case st == serialFloat:
			return Real(math.Float64frombits(binary.BigEndian.Uint64(field))), nil
		case isIntSerial(st):
			return Real(float64(decodeInt(st, field))), nil
		}
	}

	kind := "text"
	if isBlobSerial(st) {
		kind = "blob"
	} else if !isTextSerial(st) {
		kind = "number"
	}
	return Value{}, fmt.Errorf("%w: %s value (serial type %d) in %s column",
		ErrMalformedRecord, kind, st, t)
}

// decodeInt reads a big-endian two's complement integer of len(field) bytes.
func decodeInt(st uint64, field []byte) int64 {
	switch st {
	case serialZero:
		return 0
	case serialOne:
		return 1
	}
	if len(field) == 0 {
		return 0
	}
	v := int64(int8(field[0]))
	for _, b := range field[1:] {
		v = v<<8 | int64(b)
	}
	return v
}
