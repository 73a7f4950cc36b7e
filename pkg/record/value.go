package record

import (
	"strconv"
	"strings"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a decoded column value. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Integer returns an integer value.
func Integer(v int64) Value { return Value{kind: KindInteger, i: v} }

// Real returns a floating point value.
func Real(v float64) Value { return Value{kind: KindReal, f: v} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Kind returns the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumeric reports whether v holds an integer or a real.
func (v Value) IsNumeric() bool { return v.kind == KindInteger || v.kind == KindReal }

// Int returns the integer held by v. Reals are truncated.
func (v Value) Int() int64 {
	if v.kind == KindReal {
		return int64(v.f)
	}
	return v.i
}

// Float returns the numeric value of v as a float64.
func (v Value) Float() float64 {
	if v.kind == KindInteger {
		return float64(v.i)
	}
	return v.f
}

// Str returns the text held by v.
func (v Value) Str() string { return v.s }

// Interface returns v as a native Go value: nil, int64, float64 or string.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindReal:
		return v.f
	case KindText:
		return v.s
	default:
		return nil
	}
}

// String formats v the way the command line prints it. NULL prints as an
// empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	default:
		return ""
	}
}

// Equal reports whether v and o compare equal.
func (v Value) Equal(o Value) bool { return Compare(v, o) == 0 }

// Compare orders two values the way an index B-tree does: NULL sorts first,
// then numbers by numeric value, then text by byte order.
func Compare(a, b Value) int {
	ra, rb := rank(a.kind), rank(b.kind)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch {
	case a.kind == KindNull:
		return 0
	case a.kind == KindInteger && b.kind == KindInteger:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	case a.IsNumeric():
		fa, fb := a.Float(), b.Float()
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	default:
		return strings.Compare(a.s, b.s)
	}
}

func rank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindInteger, KindReal:
		return 1
	default:
		return 2
	}
}

// CompareKeys compares two index keys column by column over the shorter of
// the two.
func CompareKeys(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

