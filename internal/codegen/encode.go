package codegen

import (
	"strconv"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/layout"
)

// encoders emits WireSize, AppendWire and Encode for every record.
func (f *file) encoders() {
	for _, it := range f.items {
		switch it.Kind {
		case ir.ItemStruct:
			f.encodePlain(f.g.structRecord(it.Index))
		case ir.ItemExtensible:
			f.encodeExtensible(f.g.extRecord(it.Index))
		case ir.ItemProtocol:
			for _, r := range f.g.commandRecords(it.Index) {
				f.encodeExtensible(r)
			}
		}
	}
}

func (f *file) encodePlain(r record) {
	f.use(WireImport)
	size := r.plan.Size

	f.p("// WireSize returns the encoded size of %s, which is fixed.", r.goName)
	f.p("func (v *%s) WireSize() int {", r.goName)
	f.p("return %d", size)
	f.p("}")
	f.p("")

	f.p("// AppendWire appends the encoding of v to b.")
	f.p("func (v *%s) AppendWire(b []byte) []byte {", r.goName)
	f.p("at := len(b)")
	f.p("b = wire.AppendZeros(b, %d)", size)
	f.p("v.putWire(b[at:])")
	f.p("return b")
	f.p("}")
	f.p("")

	f.p("// Encode returns the encoding of v in a new slice.")
	f.p("func (v *%s) Encode() []byte {", r.goName)
	f.p("return v.AppendWire(make([]byte, 0, %d))", size)
	f.p("}")
	f.p("")

	f.putWire(r)
}

// encodeExtensible covers extensible structs and command bodies. Commands
// are framed by a header and padded.
func (f *file) encodeExtensible(r record) {
	f.use(WireImport)

	f.p("// WireSize returns the encoded size of v including its payloads.")
	f.p("func (v *%s) WireSize() int {", r.goName)
	if len(r.plan.Payloads) == 0 {
		if r.command {
			f.p("return wire.MessageSize(%d)", r.plan.Size)
		} else {
			f.p("return %d", r.plan.Size)
		}
	} else {
		f.p("n := %d", r.plan.Size)
		for _, pl := range r.plan.Payloads {
			_, x := r.field(pl.Field)
			switch {
			case pl.Borrowed:
				f.p("n += len(%s)", x)
			case pl.Extensible:
				f.p("for i := range %s {", x)
				f.p("n += %s[i].WireSize()", x)
				f.p("}")
			default:
				f.p("n += len(%s) * %d", x, pl.ElemSize)
			}
		}
		if r.command {
			f.p("return wire.MessageSize(n)")
		} else {
			f.p("return n")
		}
	}
	f.p("}")
	f.p("")

	f.p("// AppendWire appends the encoding of v to b. Every pointer field must")
	f.p("// hold as many elements as its count field says.")
	f.p("func (v *%s) AppendWire(b []byte) ([]byte, error) {", r.goName)
	for _, pl := range r.plan.Payloads {
		_, x := r.field(pl.Field)
		count := "v." + fieldName(pl.CountName)
		f.p("if err := wire.CheckCount(uint64(%s), len(%s), %q, %q, %q); err != nil {",
			count, x, r.plan.Name, pl.Name, pl.CountName)
		f.p("return nil, err")
		f.p("}")
	}
	if r.command {
		f.p("start := len(b)")
		f.p("b = wire.AppendHeader(b, %d)", r.opcode)
	}
	f.p("at := len(b)")
	f.p("b = wire.AppendZeros(b, %d)", r.plan.Size)
	f.p("v.putWire(b[at:])")
	for _, pl := range r.plan.Payloads {
		f.appendPayload(r, pl)
	}
	if r.command {
		f.p("return wire.FinishMessage(b, start)")
	} else {
		f.p("return b, nil")
	}
	f.p("}")
	f.p("")

	f.p("// Encode returns the encoding of v in a new slice of exactly WireSize bytes.")
	f.p("func (v *%s) Encode() ([]byte, error) {", r.goName)
	f.p("return v.AppendWire(make([]byte, 0, v.WireSize()))")
	f.p("}")
	f.p("")

	f.putWire(r)
}

func (f *file) appendPayload(r record, pl layout.Payload) {
	_, x := r.field(pl.Field)
	switch {
	case pl.Borrowed:
		f.p("b = append(b, %s...)", x)
	case pl.ElemPlan == nil:
		f.p("for _, e := range %s {", x)
		f.p("b = %s", appendScalar(pl.ElemScalar, "e"))
		f.p("}")
	case pl.Extensible:
		f.p("for i := range %s {", x)
		f.p("next, err := %s[i].AppendWire(b)", x)
		f.p("if err != nil {")
		f.p("return nil, err")
		f.p("}")
		f.p("b = next")
		f.p("}")
	default:
		f.p("for i := range %s {", x)
		f.p("at = len(b)")
		f.p("b = wire.AppendZeros(b, %d)", pl.ElemSize)
		f.p("%s[i].putWire(b[at:])", x)
		f.p("}")
	}
}

// putWire emits the method writing the prefix fields into a zeroed slice.
func (f *file) putWire(r record) {
	f.p("func (v *%s) putWire(p []byte) {", r.goName)
	for _, s := range r.plan.Slots {
		_, x := r.field(s.Field)
		if s.ArrayLen == 0 {
			f.putElem(s, strconv.Itoa(s.Offset), x)
			continue
		}
		f.p("for i := range %s {", x)
		f.putElem(s, offsetExpr(strconv.Itoa(s.Offset), "i", s.ElemSize()), x+"[i]")
		f.p("}")
	}
	f.p("}")
	f.p("")
}

func (f *file) putElem(s layout.Slot, off, x string) {
	if s.Elem != nil {
		f.p("%s.putWire(p[%s:])", x, off)
		return
	}
	f.p("%s", putScalar(s.Scalar, "p", off, x))
}
