package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/wire"
)

// integer normalizes an integral Go value to a sign flag and magnitude
// bits. JSON numbers arrive as float64 or json.Number.
func integer(v any) (neg bool, bits uint64, err error) {
	switch x := v.(type) {
	case nil:
		return false, 0, nil
	case uint64:
		return false, x, nil
	case uint32:
		return false, uint64(x), nil
	case uint16:
		return false, uint64(x), nil
	case uint8:
		return false, uint64(x), nil
	case uint:
		return false, uint64(x), nil
	case int64:
		return x < 0, uint64(x), nil
	case int32:
		return x < 0, uint64(int64(x)), nil
	case int16:
		return x < 0, uint64(int64(x)), nil
	case int8:
		return x < 0, uint64(int64(x)), nil
	case int:
		return x < 0, uint64(int64(x)), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return false, 0, fmt.Errorf("%v is not an integer", x)
		}
		if x < 0 {
			if x < math.MinInt64 {
				return false, 0, fmt.Errorf("%v is out of range", x)
			}
			return true, uint64(int64(x)), nil
		}
		if x >= math.MaxUint64 {
			return false, 0, fmt.Errorf("%v is out of range", x)
		}
		return false, uint64(x), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return i < 0, uint64(i), nil
		}
		u, err := strconv.ParseUint(string(x), 10, 64)
		if err != nil {
			return false, 0, fmt.Errorf("%s is not an integer", x)
		}
		return false, u, nil
	}
	return false, 0, fmt.Errorf("%T is not an integer", v)
}

// scalarBits converts v to the bit pattern of integral primitive p,
// rejecting values that do not fit.
func scalarBits(p ir.Primitive, v any) (uint64, error) {
	neg, bits, err := integer(v)
	if err != nil {
		return 0, err
	}
	width := uint(p.Size() * 8)
	if p.Signed() {
		if !neg && bits > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows %s", bits, p)
		}
		if width == 64 {
			return bits, nil
		}
		s := int64(bits)
		lo, hi := -(int64(1) << (width - 1)), int64(1)<<(width-1)-1
		if s < lo || s > hi {
			return 0, fmt.Errorf("%d overflows %s", s, p)
		}
		return bits & (1<<width - 1), nil
	}
	if neg {
		return 0, fmt.Errorf("%d is negative for %s", int64(bits), p)
	}
	if width < 64 && bits>>width != 0 {
		return 0, fmt.Errorf("%d overflows %s", bits, p)
	}
	return bits, nil
}

func float(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	neg, bits, err := integer(v)
	if err != nil {
		return 0, fmt.Errorf("%T is not a number", v)
	}
	if neg {
		return float64(int64(bits)), nil
	}
	return float64(bits), nil
}

// putScalar writes v as primitive p at the start of dst.
func putScalar(dst []byte, p ir.Primitive, v any) error {
	switch {
	case p == ir.Bool:
		b, ok := v.(bool)
		if !ok && v != nil {
			return fmt.Errorf("%T is not a bool", v)
		}
		if b {
			dst[0] = 1
		}
		return nil
	case p == ir.F32:
		f, err := float(v)
		if err != nil {
			return err
		}
		wire.Order.PutUint32(dst, math.Float32bits(float32(f)))
		return nil
	case p == ir.F64:
		f, err := float(v)
		if err != nil {
			return err
		}
		wire.Order.PutUint64(dst, math.Float64bits(f))
		return nil
	}

	bits, err := scalarBits(p, v)
	if err != nil {
		return err
	}
	switch p.Size() {
	case 1:
		dst[0] = byte(bits)
	case 2:
		wire.Order.PutUint16(dst, uint16(bits))
	case 4:
		wire.Order.PutUint32(dst, uint32(bits))
	case 8:
		wire.Order.PutUint64(dst, bits)
	default:
		return fmt.Errorf("cannot encode %s", p)
	}
	return nil
}

// readScalar reads primitive p from the start of src. Callers bounds check.
func readScalar(src []byte, p ir.Primitive) any {
	switch p {
	case ir.Bool:
		return wire.Bool(src)
	case ir.F32:
		return float64(wire.Float32(src))
	case ir.F64:
		return wire.Float64(src)
	case ir.U8:
		return uint64(src[0])
	case ir.I8:
		return int64(int8(src[0]))
	case ir.U16:
		return uint64(wire.Order.Uint16(src))
	case ir.I16:
		return int64(int16(wire.Order.Uint16(src)))
	case ir.U32:
		return uint64(wire.Order.Uint32(src))
	case ir.I32:
		return int64(int32(wire.Order.Uint32(src)))
	case ir.I64:
		return int64(wire.Order.Uint64(src))
	default:
		return wire.Order.Uint64(src)
	}
}

// count reads a count field value as a non-negative element count.
func count(v any) (uint64, error) {
	neg, bits, err := integer(v)
	if err != nil {
		return 0, err
	}
	if neg {
		return 0, fmt.Errorf("count %d is negative", int64(bits))
	}
	return bits, nil
}

func elements(v any) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	case []byte:
		out := make([]any, len(x))
		for i, c := range x {
			out[i] = uint64(c)
		}
		return out, nil
	case []Record:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = r
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = Record(r)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%T is not a list", v)
}

func record(v any) (Record, error) {
	switch x := v.(type) {
	case nil:
		return Record{}, nil
	case Record:
		return x, nil
	case map[string]any:
		return Record(x), nil
	}
	return nil, fmt.Errorf("%T is not a record", v)
}
