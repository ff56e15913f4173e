//go:build cgo

package native

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/apigen/internal/codegen/golden/relay"
)

func TestNestedBatchViewCrossesIntoC(t *testing.T) {
	batch := relay.Batch{
		N: 2,
		Chunks: []relay.Chunk{
			{Len: 2, Data: []byte{1, 2}},
			{Len: 3, Data: []byte{3, 4, 5}},
		},
	}

	var pin runtime.Pinner
	defer pin.Unpin()
	view := batch.ToNative(&pin)
	assert.Equal(t, uint64(15), SumBatch(&view))

	empty := (&relay.Batch{}).ToNative(&pin)
	assert.Equal(t, uint64(0), SumBatch(&empty))
}

func TestPolygonViewCrossesIntoC(t *testing.T) {
	poly := relay.Polygon{Count: 3, Points: []relay.Point{{X: 1, Y: -1}, {X: 2, Y: -2}, {X: 3, Y: 5}}}

	var pin runtime.Pinner
	defer pin.Unpin()
	view := poly.ToNative(&pin)
	assert.Equal(t, int64(8), SumPolygon(&view))
}
