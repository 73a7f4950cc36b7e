package record

import (
	"encoding/binary"
	"math"

	"github.com/cobaltdb/sqlitescan/pkg/varint"
)

// Encode builds a record holding values, choosing the smallest serial type
// for each integer.
func Encode(values []Value) []byte {
	var hdr, body []byte
	for _, v := range values {
		switch v.kind {
		case KindNull:
			hdr = varint.Append(hdr, serialNull)
		case KindInteger:
			st, width := intSerial(v.i)
			hdr = varint.Append(hdr, st)
			for shift := (width - 1) * 8; shift >= 0; shift -= 8 {
				body = append(body, byte(v.i>>uint(shift)))
			}
		case KindReal:
			hdr = varint.Append(hdr, serialFloat)
			body = binary.BigEndian.AppendUint64(body, math.Float64bits(v.f))
		case KindText:
			hdr = varint.Append(hdr, uint64(len(v.s))*2+13)
			body = append(body, v.s...)
		}
	}

	size := 1
	for varint.Len(uint64(len(hdr)+size)) != size {
		size++
	}

	out := make([]byte, 0, size+len(hdr)+len(body))
	out = varint.Append(out, uint64(len(hdr)+size))
	out = append(out, hdr...)
	return append(out, body...)
}

func intSerial(v int64) (uint64, int) {
	switch {
	case v == 0:
		return serialZero, 0
	case v == 1:
		return serialOne, 0
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return 1, 1
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return 2, 2
	case v >= -1<<23 && v < 1<<23:
		return 3, 3
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return 4, 4
	case v >= -1<<47 && v < 1<<47:
		return 5, 6
	default:
		return 6, 8
	}
}
