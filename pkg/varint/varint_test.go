package varint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVectors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint64
		n     int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"max one byte", []byte{0x7f}, 127, 1},
		{"two bytes", []byte{0x81, 0x00}, 128, 2},
		{"two bytes max low", []byte{0x81, 0x7f}, 255, 2},
		{"three bytes", []byte{0x81, 0x80, 0x00}, 16384, 3},
		{"trailing bytes ignored", []byte{0x05, 0xff, 0xff}, 5, 1},
		{"nine bytes", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, math.MaxUint64, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, n, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.n, n)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{0x80},
		{0xff, 0xff, 0xff},
		{0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81},
	}
	for _, in := range inputs {
		_, _, err := Decode(in)
		assert.ErrorIs(t, err, ErrTruncated, "input % x", in)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 240, 255, 2287, 16383, 16384, 67823,
		1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 35, 1<<49 + 7,
		1<<56 - 1, 1 << 56, 1<<63 + 12345, math.MaxUint64,
	}
	for _, v := range values {
		buf := make([]byte, MaxLen)
		n := Put(buf, v)
		assert.Equal(t, Len(v), n, "Len(%d)", v)

		got, consumed, err := Decode(buf[:n])
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, n, consumed)
	}
}

func TestAppend(t *testing.T) {
	dst := []byte{0xaa}
	dst = Append(dst, 128)
	dst = Append(dst, 1)
	assert.Equal(t, []byte{0xaa, 0x81, 0x00, 0x01}, dst)
}

func TestLenBoundaries(t *testing.T) {
	for bytes := 1; bytes <= 8; bytes++ {
		max := uint64(1)<<(7*bytes) - 1
		assert.Equal(t, bytes, Len(max))
		assert.Equal(t, bytes+1, Len(max+1))
	}
}

func BenchmarkDecode(b *testing.B) {
	buf := Append(nil, 1<<40)
	for i := 0; i < b.N; i++ {
		if _, _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
