package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// Order is the byte order of every multi-byte value on the wire.
var Order = binary.LittleEndian

// Check returns a TruncatedInputError when b holds fewer than n bytes.
func Check(b []byte, n int, typ, field string) error {
	if len(b) < n {
		return &TruncatedInputError{Type: typ, Field: field, Need: uint64(n), Have: len(b)}
	}
	return nil
}

// PayloadLen returns count*elemSize after confirming that many bytes are
// available in b. The multiplication is overflow safe.
func PayloadLen(b []byte, count uint64, elemSize int, typ, field string) (int, error) {
	hi, need := bits.Mul64(count, uint64(elemSize))
	if hi != 0 {
		return 0, &TruncatedInputError{Type: typ, Field: field, Need: math.MaxUint64, Have: len(b)}
	}
	if need > uint64(len(b)) {
		return 0, &TruncatedInputError{Type: typ, Field: field, Need: need, Have: len(b)}
	}
	return int(need), nil
}

// Borrow returns the first n bytes of b without copying. The capacity of the
// result is clipped to n. Callers must have bounds checked n beforehand.
func Borrow(b []byte, n int) []byte {
	return b[:n:n]
}

// CheckCount returns a CountMismatchError when a pointer field's length
// differs from its count field.
func CheckCount(count uint64, n int, typ, field, countField string) error {
	if uint64(n) != count {
		return &CountMismatchError{Type: typ, Field: field, CountField: countField, Count: count, Len: n}
	}
	return nil
}

// NegativeCount returns the MalformedError for a signed count field that
// holds a negative value.
func NegativeCount(count int64, typ, countField string) error {
	return &MalformedError{Type: typ, Detail: fmt.Sprintf("%s: count %d is negative", countField, count)}
}

// AppendZeros appends n zero bytes to b.
func AppendZeros(b []byte, n int) []byte {
	return append(b, make([]byte, n)...)
}

// AppendBool appends a one-byte boolean.
func AppendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// PutBool writes a one-byte boolean at the start of b.
func PutBool(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

// PutFloat32 writes the IEEE 754 bits of v at the start of b.
func PutFloat32(b []byte, v float32) {
	Order.PutUint32(b, math.Float32bits(v))
}

// PutFloat64 writes the IEEE 754 bits of v at the start of b.
func PutFloat64(b []byte, v float64) {
	Order.PutUint64(b, math.Float64bits(v))
}

// Bool reads a one-byte boolean. Any non-zero byte is true.
func Bool(b []byte) bool {
	return b[0] != 0
}

// AppendFloat32 appends the IEEE 754 bits of v.
func AppendFloat32(b []byte, v float32) []byte {
	return Order.AppendUint32(b, math.Float32bits(v))
}

// AppendFloat64 appends the IEEE 754 bits of v.
func AppendFloat64(b []byte, v float64) []byte {
	return Order.AppendUint64(b, math.Float64bits(v))
}

// Float32 reads an IEEE 754 single.
func Float32(b []byte) float32 {
	return math.Float32frombits(Order.Uint32(b))
}

// Float64 reads an IEEE 754 double.
func Float64(b []byte) float64 {
	return math.Float64frombits(Order.Uint64(b))
}

// Align rounds n up to the next multiple of align. align must be a power of
// two or zero.
func Align(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
