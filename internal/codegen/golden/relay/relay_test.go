package relay

import (
	"encoding/hex"
	"errors"
	"math"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/codec"
	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/schema"
	"github.com/roach88/apigen/wire"
)

func loadCodec(t *testing.T) *codec.Codec {
	t.Helper()
	doc, err := schema.Load(filepath.Join("..", "..", "..", "..", "testdata", "relay.yaml"))
	require.NoError(t, err)
	cat, err := compiler.Build(doc)
	require.NoError(t, err)
	c, err := codec.New(cat)
	require.NoError(t, err)
	return c
}

func triangle() Polygon {
	return Polygon{Count: 3, Points: []Point{{1, -1}, {2, -2}, {3, -3}}}
}

func batches() []Batch {
	return []Batch{
		{N: 2, Chunks: []Chunk{
			{Len: 2, Data: []byte{1, 2}},
			{Len: 3, Data: []byte{3, 4, 5}},
		}},
		{N: 1, Chunks: []Chunk{{Len: 0, Data: []byte{}}}},
	}
}

func TestPolygonEncodesTo28Bytes(t *testing.T) {
	poly := triangle()
	b, err := poly.Encode()
	require.NoError(t, err)
	require.Len(t, b, 28)
	assert.Equal(t, poly.WireSize(), len(b))
	assert.Equal(t, "03000000"+
		"01000000ffffffff"+
		"02000000feffffff"+
		"03000000fdffffff", hex.EncodeToString(b))

	var got Polygon
	n, err := got.DecodeWire(b)
	require.NoError(t, err)
	assert.Equal(t, 28, n)
	assert.Equal(t, poly, got)

	_, err = new(Polygon).DecodeWire(b[:27])
	assert.ErrorIs(t, err, wire.ErrTruncated)
}

func TestSendRoundTrip(t *testing.T) {
	send := RelaySend{Count: 2, Batches: batches()}
	b, err := send.Encode()
	require.NoError(t, err)
	assert.Equal(t, send.WireSize(), len(b))
	assert.Zero(t, len(b)%wire.MessageAlign)

	cmd, n, err := DecodeRelayCommand(b)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, RelayOpcodeSend, cmd.Opcode())
	assert.Equal(t, &send, cmd)
}

func TestEveryPrefixOfNestedMessageFails(t *testing.T) {
	send := RelaySend{Count: 2, Batches: batches()}
	msg, err := send.Encode()
	require.NoError(t, err)
	for i := 0; i < len(msg); i++ {
		_, _, err := DecodeRelayCommand(msg[:i])
		assert.ErrorIs(t, err, wire.ErrTruncated, "prefix %d", i)
	}

	batch := batches()[0]
	rec, err := batch.Encode()
	require.NoError(t, err)
	for i := 0; i < len(rec); i++ {
		_, err := new(Batch).DecodeWire(rec[:i])
		assert.ErrorIs(t, err, wire.ErrTruncated, "prefix %d", i)
	}
}

func TestUnknownOpcode(t *testing.T) {
	b, err := wire.FinishMessage(wire.AppendHeader(nil, 7), 0)
	require.NoError(t, err)

	_, _, err = DecodeRelayCommand(b)
	assert.ErrorIs(t, err, wire.ErrUnknownOpcode)
	assert.Equal(t, "RelayOpcode(7)", RelayOpcode(7).String())

	ping, err := (&RelayPing{}).Encode()
	require.NoError(t, err)
	_, err = new(RelaySend).DecodeWire(ping)
	assert.ErrorIs(t, err, wire.ErrOpcodeMismatch)
}

func TestCountMismatchOnEncode(t *testing.T) {
	_, err := (&Polygon{Count: 2, Points: []Point{{1, 1}}}).Encode()
	assert.ErrorIs(t, err, wire.ErrCountMismatch)

	_, err = (&RelaySend{Count: 1}).Encode()
	assert.ErrorIs(t, err, wire.ErrCountMismatch)
}

func TestNegativeCountIsMalformed(t *testing.T) {
	b := []byte{0xff, 0xff}

	_, err := new(Chunk).DecodeWire(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, wire.ErrMalformed)

	_, _, codecErr := loadCodec(t).Decode("Chunk", b)
	require.Error(t, codecErr)
	assert.Equal(t, codecErr.Error(), err.Error())
}

func TestGeneratedBytesMatchCodec(t *testing.T) {
	c := loadCodec(t)

	poly := triangle()
	want, err := c.Encode("Polygon", codec.Record{
		"count": uint64(3),
		"points": []any{
			codec.Record{"x": int64(1), "y": int64(-1)},
			codec.Record{"x": int64(2), "y": int64(-2)},
			codec.Record{"x": int64(3), "y": int64(-3)},
		},
	})
	require.NoError(t, err)
	got, err := poly.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	chunks := func(data ...[]byte) []any {
		out := make([]any, len(data))
		for i, d := range data {
			out[i] = codec.Record{"len": int64(len(d)), "data": d}
		}
		return out
	}
	want, err = c.EncodeCommand("relay", "send", codec.Record{
		"count": uint64(2),
		"batches": []any{
			codec.Record{"n": uint64(2), "chunks": chunks([]byte{1, 2}, []byte{3, 4, 5})},
			codec.Record{"n": uint64(1), "chunks": chunks([]byte{})},
		},
	})
	require.NoError(t, err)
	send := RelaySend{Count: 2, Batches: batches()}
	got, err = send.Encode()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	msg, err := c.DecodeCommand("relay", got)
	require.NoError(t, err)
	assert.Equal(t, "send", msg.Command)
	assert.Equal(t, uint32(RelayOpcodeSend), msg.Opcode)

	want, err = c.EncodeCommand("relay", "ping", codec.Record{})
	require.NoError(t, err)
	got, err = (&RelayPing{}).Encode()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNativeViewRoundTrip(t *testing.T) {
	var pin runtime.Pinner
	defer pin.Unpin()

	batch := batches()[0]
	view := batch.ToNative(&pin)
	assert.Equal(t, uint64(2), view.N)
	require.NotNil(t, view.Chunks)

	var back Batch
	require.NoError(t, back.FromNative(&view))
	assert.Equal(t, batch, back)

	poly := triangle()
	pview := poly.ToNative(&pin)
	var pback Polygon
	require.NoError(t, pback.FromNative(&pview))
	assert.Equal(t, poly, pback)

	empty := (&Batch{}).ToNative(&pin)
	assert.Nil(t, empty.Chunks)
}

func TestFromNativeRejectsImpossibleCounts(t *testing.T) {
	var elem ChunkFFI
	err := new(Batch).FromNative(&BatchFFI{N: math.MaxUint64, Chunks: &elem})
	assert.ErrorIs(t, err, wire.ErrMalformed)
	assert.ErrorContains(t, err, "n: count exceeds the address space")

	err = new(Chunk).FromNative(&ChunkFFI{Len: -1})
	assert.ErrorIs(t, err, wire.ErrMalformed)

	err = new(Chunk).FromNative(&ChunkFFI{Len: 2})
	assert.ErrorIs(t, err, wire.ErrNilPointer)

	var nilErr *wire.NilPointerError
	require.True(t, errors.As(err, &nilErr))
	assert.Equal(t, uint64(2), nilErr.Count)
}
