// Package varint implements the variable-length integer encoding used by the
// SQLite file format.
//
// A varint is one to nine bytes long. The first eight bytes carry seven bits
// each, most significant group first, with the high bit set on every byte that
// is followed by another. A ninth byte, when present, carries a full eight bits.
package varint

import "errors"

// MaxLen is the longest encoding of a 64-bit value.
const MaxLen = 9

// ErrTruncated is returned when the input ends before a varint terminates.
var ErrTruncated = errors.New("varint: truncated input")

// Decode reads a varint from the start of p and returns the value and the
// number of bytes consumed. It never reads past the end of p.
func Decode(p []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxLen; i++ {
		if i >= len(p) {
			return 0, 0, ErrTruncated
		}
		b := p[i]
		if i == MaxLen-1 {
			return v<<8 | uint64(b), MaxLen, nil
		}
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	// unreachable: the ninth byte always terminates
	return v, MaxLen, nil
}

// Len returns the number of bytes needed to encode v.
func Len(v uint64) int {
	if v>>56 != 0 {
		return MaxLen
	}
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

// Put encodes v into p and returns the number of bytes written.
// It panics if p is shorter than Len(v).
func Put(p []byte, v uint64) int {
	n := Len(v)
	if n == MaxLen {
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return MaxLen
	}
	for i := n - 1; i >= 0; i-- {
		b := byte(v & 0x7f)
		if i < n-1 {
			b |= 0x80
		}
		p[i] = b
		v >>= 7
	}
	return n
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v uint64) []byte {
	var buf [MaxLen]byte
	n := Put(buf[:], v)
	return append(dst, buf[:n]...)
}
