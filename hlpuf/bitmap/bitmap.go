// Package bitmap provides utilities for operating on densely-packed arrays of
// booleans, as used for PUF challenges and responses.
package bitmap

import (
	"fmt"
	"math/bits"
	"math/rand"
	"strings"
)

const byteSize = 8

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// FromString converts a string of '1's and '0's to a Dense. Spaces are
// ignored.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitmap string rep: %s", s)
		}
	}
	return d, nil
}

// FromBits builds a Dense from a sequence of 0/1 values. Any value other than
// 0 or 1 is an error.
func FromBits(vals ...uint8) (Dense, error) {
	d := Dense{}
	for i, v := range vals {
		switch v {
		case 0:
			d.AppendBit(false)
		case 1:
			d.AppendBit(true)
		default:
			return Dense{}, fmt.Errorf("bit %d has value %d, want 0 or 1", i, v)
		}
	}
	return d, nil
}

// Random returns a bitmap of n bits drawn uniformly from r, one draw per bit.
func Random(r *rand.Rand, n int) Dense {
	d := Dense{}
	for i := 0; i < n; i++ {
		d.AppendBit(r.Intn(2) == 1)
	}
	return d
}

// CountOnes returns the total number of bits set in d.
func CountOnes(d Dense) int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// XOr returns the bitwise XOR of two bitmaps. The shorter of the two is
// treated as if padded with trailing zeros.
func XOr(a, b Dense) Dense {
	short, long := a, b
	if b.len < a.len {
		short, long = b, a
	}
	r := Dense{
		bits: make([]byte, 0, BytesFor(long.len)),
		len:  long.len,
	}
	for i := range short.bits {
		r.bits = append(r.bits, a.bits[i]^b.bits[i])
	}
	r.bits = append(r.bits, long.bits[len(short.bits):]...)
	return r
}

// Equal returns true iff a and b have the same length and contain the same
// bits.
func Equal(a, b Dense) bool {
	return a.len == b.len && CountOnes(XOr(a, b)) == 0
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + byteSize - 1) / byteSize
}

func formatBits(d Dense) string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
