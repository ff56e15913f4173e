package codec

import (
	"fmt"

	"github.com/roach88/apigen/internal/layout"
	"github.com/roach88/apigen/wire"
)

func malformed(typ, field string, err error) error {
	return &wire.MalformedError{Type: typ, Detail: fmt.Sprintf("%s: %v", field, err)}
}

// appendRecord appends the prefix of v followed by its payloads.
func appendRecord(b []byte, plan *layout.Plan, v Record) ([]byte, error) {
	start := len(b)
	b = wire.AppendZeros(b, plan.Size)
	if err := putFields(b[start:], plan, v); err != nil {
		return nil, err
	}

	for _, pl := range plan.Payloads {
		n, err := count(v[pl.CountName])
		if err != nil {
			return nil, malformed(plan.Name, pl.CountName, err)
		}
		if raw, ok := v[pl.Name].([]byte); ok && pl.Borrowed {
			if err := wire.CheckCount(n, len(raw), plan.Name, pl.Name, pl.CountName); err != nil {
				return nil, err
			}
			b = append(b, raw...)
			continue
		}
		elems, err := elements(v[pl.Name])
		if err != nil {
			return nil, malformed(plan.Name, pl.Name, err)
		}
		if err := wire.CheckCount(n, len(elems), plan.Name, pl.Name, pl.CountName); err != nil {
			return nil, err
		}
		for i, e := range elems {
			field := fmt.Sprintf("%s[%d]", pl.Name, i)
			switch {
			case pl.ElemPlan == nil:
				at := len(b)
				b = wire.AppendZeros(b, pl.ElemSize)
				if err := putScalar(b[at:], pl.ElemScalar, e); err != nil {
					return nil, malformed(plan.Name, field, err)
				}
			case pl.Extensible:
				rec, err := record(e)
				if err != nil {
					return nil, malformed(plan.Name, field, err)
				}
				if b, err = appendRecord(b, pl.ElemPlan, rec); err != nil {
					return nil, err
				}
			default:
				rec, err := record(e)
				if err != nil {
					return nil, malformed(plan.Name, field, err)
				}
				at := len(b)
				b = wire.AppendZeros(b, pl.ElemSize)
				if err := putFields(b[at:], pl.ElemPlan, rec); err != nil {
					return nil, err
				}
			}
		}
	}
	return b, nil
}

// putFields writes the prefix slots of v into dst, which is at least
// plan.Size bytes of zeros. Absent fields stay zero.
func putFields(dst []byte, plan *layout.Plan, v Record) error {
	for _, s := range plan.Slots {
		val, ok := v[s.Name]
		if !ok {
			continue
		}
		if s.ArrayLen == 0 {
			if err := putElem(dst[s.Offset:], plan.Name, s, val); err != nil {
				return err
			}
			continue
		}
		elems, err := elements(val)
		if err != nil {
			return malformed(plan.Name, s.Name, err)
		}
		if len(elems) != s.ArrayLen {
			return malformed(plan.Name, s.Name, fmt.Errorf("array has %d elements, want %d", len(elems), s.ArrayLen))
		}
		stride := s.ElemSize()
		for i, e := range elems {
			if err := putElem(dst[s.Offset+i*stride:], plan.Name, s, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func putElem(dst []byte, owner string, s layout.Slot, v any) error {
	if s.Elem != nil {
		rec, err := record(v)
		if err != nil {
			return malformed(owner, s.Name, err)
		}
		return putFields(dst, s.Elem, rec)
	}
	if err := putScalar(dst, s.Scalar, v); err != nil {
		return malformed(owner, s.Name, err)
	}
	return nil
}

// decodeRecord reads a prefix and its payloads from the start of b and
// returns the bytes consumed.
func decodeRecord(plan *layout.Plan, b []byte) (Record, int, error) {
	if err := wire.Check(b, plan.Size, plan.Name, ""); err != nil {
		return nil, 0, err
	}
	rec := readFields(b, plan)
	off := plan.Size

	for _, pl := range plan.Payloads {
		n, err := count(rec[pl.CountName])
		if err != nil {
			return nil, 0, malformed(plan.Name, pl.CountName, err)
		}
		rest := b[off:]

		// Every element is at least ElemSize bytes, so this bounds the
		// allocation below even for extensible elements.
		size, err := wire.PayloadLen(rest, n, pl.ElemSize, plan.Name, pl.Name)
		if err != nil {
			return nil, 0, err
		}

		switch {
		case pl.Borrowed:
			rec[pl.Name] = wire.Borrow(rest, size)
			off += size
		case pl.ElemPlan == nil:
			elems := make([]any, n)
			for i := range elems {
				elems[i] = readScalar(rest[i*pl.ElemSize:], pl.ElemScalar)
			}
			rec[pl.Name] = elems
			off += size
		case pl.Extensible:
			elems := make([]any, n)
			for i := range elems {
				e, used, err := decodeRecord(pl.ElemPlan, b[off:])
				if err != nil {
					return nil, 0, err
				}
				elems[i] = e
				off += used
			}
			rec[pl.Name] = elems
		default:
			elems := make([]any, n)
			for i := range elems {
				elems[i] = readFields(rest[i*pl.ElemSize:], pl.ElemPlan)
			}
			rec[pl.Name] = elems
			off += size
		}
	}
	return rec, off, nil
}

// readFields reads the prefix slots of plan. Callers bounds check.
func readFields(b []byte, plan *layout.Plan) Record {
	rec := make(Record, len(plan.Slots))
	for _, s := range plan.Slots {
		if s.ArrayLen == 0 {
			rec[s.Name] = readElem(b[s.Offset:], s)
			continue
		}
		stride := s.ElemSize()
		elems := make([]any, s.ArrayLen)
		for i := range elems {
			elems[i] = readElem(b[s.Offset+i*stride:], s)
		}
		rec[s.Name] = elems
	}
	return rec
}

func readElem(b []byte, s layout.Slot) any {
	if s.Elem != nil {
		return readFields(b, s.Elem)
	}
	return readScalar(b, s.Scalar)
}
