//go:build cgo

package native

/*
#cgo CFLAGS: -I${SRCDIR}
#include "relay.h"

static uint64_t sum_batch(const Batch* b) {
	uint64_t total = 0;
	for (uint64_t i = 0; i < b->n; i++) {
		const Chunk* c = &b->chunks[i];
		for (int16_t j = 0; j < c->len; j++) {
			total += c->data[j];
		}
	}
	return total;
}

static int64_t sum_polygon(const Polygon* p) {
	int64_t total = 0;
	for (uint32_t i = 0; i < p->count; i++) {
		total += (int64_t)p->points[i].x + p->points[i].y;
	}
	return total;
}
*/
import "C"

import (
	"unsafe"

	"github.com/roach88/apigen/internal/codegen/golden/relay"
)

// SumBatch adds up every data byte of every chunk in a native batch view.
func SumBatch(v *relay.BatchFFI) uint64 {
	return uint64(C.sum_batch((*C.Batch)(unsafe.Pointer(v))))
}

// SumPolygon adds up the coordinates of a native polygon view.
func SumPolygon(v *relay.PolygonFFI) int64 {
	return int64(C.sum_polygon((*C.Polygon)(unsafe.Pointer(v))))
}
