package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	require.NoError(t, Check(make([]byte, 8), 8, "Point", ""))

	err := Check(make([]byte, 7), 8, "Point", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))

	var trunc *TruncatedInputError
	require.True(t, errors.As(err, &trunc))
	assert.Equal(t, uint64(8), trunc.Need)
	assert.Equal(t, 7, trunc.Have)
	assert.Contains(t, err.Error(), "Point")
}

func TestPayloadLen(t *testing.T) {
	n, err := PayloadLen(make([]byte, 24), 3, 8, "Polygon", "points")
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	_, err = PayloadLen(make([]byte, 23), 3, 8, "Polygon", "points")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.Contains(t, err.Error(), "Polygon.points")
}

func TestPayloadLenOverflow(t *testing.T) {
	_, err := PayloadLen(make([]byte, 16), math.MaxUint64, 8, "Polygon", "points")
	require.Error(t, err)

	var trunc *TruncatedInputError
	require.True(t, errors.As(err, &trunc))
	assert.Equal(t, uint64(math.MaxUint64), trunc.Need)
}

func TestBorrowClipsCapacity(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	view := Borrow(buf[1:], 2)
	assert.Equal(t, []byte{2, 3}, view)
	assert.Equal(t, 2, cap(view))

	view = append(view, 9)
	assert.Equal(t, byte(4), buf[3], "append must not write into the source buffer")
}

func TestCheckCount(t *testing.T) {
	require.NoError(t, CheckCount(3, 3, "Polygon", "points", "count"))

	err := CheckCount(2, 3, "Polygon", "points", "count")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCountMismatch))
	assert.Contains(t, err.Error(), "count is 2")
}

func TestNegativeCount(t *testing.T) {
	err := NegativeCount(-1, "Chunk", "len")
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.EqualError(t, err, "wire: malformed Chunk: len: count -1 is negative")
}

func TestFloatsAndBools(t *testing.T) {
	b := AppendFloat32(nil, 1.5)
	b = AppendFloat64(b, -2.25)
	b = AppendBool(b, true)
	require.Len(t, b, 13)

	assert.Equal(t, float32(1.5), Float32(b[0:]))
	assert.Equal(t, -2.25, Float64(b[4:]))
	assert.True(t, Bool(b[12:]))
}

func TestAlign(t *testing.T) {
	assert.Equal(t, 0, Align(0, 8))
	assert.Equal(t, 8, Align(1, 8))
	assert.Equal(t, 8, Align(8, 8))
	assert.Equal(t, 12, Align(9, 4))
	assert.Equal(t, 5, Align(5, 1))
}

func TestMessageFraming(t *testing.T) {
	b := AppendHeader(nil, 7)
	b = Order.AppendUint32(b, 0xAABBCCDD)
	b, err := FinishMessage(b, 0)
	require.NoError(t, err)

	assert.Len(t, b, 16)
	assert.Equal(t, MessageSize(4), len(b))

	h, body, err := ReadHeader(b, "magma")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), h.Opcode)
	assert.Equal(t, uint32(16), h.Size)
	assert.Len(t, body, 8)
	assert.Equal(t, uint32(0xAABBCCDD), Order.Uint32(body))
}

func TestFinishMessageWithPrefix(t *testing.T) {
	b := []byte{0xFF, 0xFF, 0xFF}
	start := len(b)
	b = AppendHeader(b, 1)
	b, err := FinishMessage(b, start)
	require.NoError(t, err)

	assert.Len(t, b, start+8)
	assert.Equal(t, uint32(8), Order.Uint32(b[start+4:]))
}

func TestReadHeaderErrors(t *testing.T) {
	_, _, err := ReadHeader([]byte{1, 0, 0}, "magma")
	assert.True(t, errors.Is(err, ErrTruncated))

	short := AppendHeader(nil, 1)
	Order.PutUint32(short[4:], 4)
	_, _, err = ReadHeader(short, "magma")
	assert.True(t, errors.Is(err, ErrMalformed))

	long := AppendHeader(nil, 1)
	Order.PutUint32(long[4:], 64)
	_, _, err = ReadHeader(long, "magma")
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestErrorSentinels(t *testing.T) {
	assert.True(t, errors.Is(&UnknownOpcodeError{Protocol: "magma", Opcode: 9}, ErrUnknownOpcode))
	assert.True(t, errors.Is(&OpcodeMismatchError{Command: "x", Want: 1, Got: 2}, ErrOpcodeMismatch))
	assert.True(t, errors.Is(&NilPointerError{Type: "Polygon", Field: "points", Count: 1}, ErrNilPointer))
	assert.False(t, errors.Is(&UnknownOpcodeError{}, ErrTruncated))
	assert.Equal(t, "wire: unknown opcode 9 for protocol magma", (&UnknownOpcodeError{Protocol: "magma", Opcode: 9}).Error())
}

func TestPutHelpers(t *testing.T) {
	b := make([]byte, 13)
	PutFloat32(b[0:], 1.5)
	PutFloat64(b[4:], -2.25)
	PutBool(b[12:], true)

	assert.Equal(t, AppendBool(AppendFloat64(AppendFloat32(nil, 1.5), -2.25), true), b)
	PutBool(b[12:], false)
	assert.False(t, Bool(b[12:]))
	assert.Equal(t, []byte{9, 0, 0}, AppendZeros([]byte{9}, 2))
}
