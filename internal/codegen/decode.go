package codegen

import (
	"strconv"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/layout"
)

// decoders emits DecodeWire for every record.
func (f *file) decoders() {
	for _, it := range f.items {
		switch it.Kind {
		case ir.ItemStruct:
			f.decodePlain(f.g.structRecord(it.Index))
		case ir.ItemExtensible:
			f.decodeExtensible(f.g.extRecord(it.Index), "DecodeWire")
		case ir.ItemProtocol:
			for _, r := range f.g.commandRecords(it.Index) {
				f.decodeCommand(r)
			}
		}
	}
}

func (f *file) decodePlain(r record) {
	f.use(WireImport)
	f.p("// DecodeWire decodes v from the start of b and returns the bytes consumed.")
	f.p("func (v *%s) DecodeWire(b []byte) (int, error) {", r.goName)
	f.p(`if err := wire.Check(b, %d, %q, ""); err != nil {`, r.plan.Size, r.plan.Name)
	f.p("return 0, err")
	f.p("}")
	f.p("v.readWire(b)")
	f.p("return %d, nil", r.plan.Size)
	f.p("}")
	f.p("")
	f.readWire(r)
}

func (f *file) decodeCommand(r record) {
	f.use(WireImport)
	f.p("// DecodeWire decodes one framed %s message from the start of b and", r.plan.Name)
	f.p("// returns the bytes consumed, padding included.")
	f.p("func (v *%s) DecodeWire(b []byte) (int, error) {", r.goName)
	f.p("h, body, err := wire.ReadHeader(b, %q)", r.proto.Name)
	f.p("if err != nil {")
	f.p("return 0, err")
	f.p("}")
	f.p("if h.Opcode != %d {", r.opcode)
	f.p("return 0, &wire.OpcodeMismatchError{Command: %q, Want: %d, Got: h.Opcode}", r.plan.Name, r.opcode)
	f.p("}")
	f.p("if _, err = v.decodeBody(body); err != nil {")
	f.p("return 0, err")
	f.p("}")
	f.p("return int(h.Size), nil")
	f.p("}")
	f.p("")
	f.decodeExtensible(r, "decodeBody")
}

// decodeExtensible emits method, which reads a prefix and its payloads.
// Payload lengths are bounds checked before anything is allocated.
func (f *file) decodeExtensible(r record, method string) {
	f.use(WireImport)
	if method == "DecodeWire" {
		f.p("// DecodeWire decodes v from the start of b and returns the bytes consumed.")
		f.p("// Byte payloads alias b.")
	}
	f.p("func (v *%s) %s(b []byte) (int, error) {", r.goName, method)
	f.p(`if err := wire.Check(b, %d, %q, ""); err != nil {`, r.plan.Size, r.plan.Name)
	f.p("return 0, err")
	f.p("}")
	f.p("v.readWire(b)")
	if len(r.plan.Payloads) == 0 {
		f.p("return %d, nil", r.plan.Size)
		f.p("}")
		f.p("")
		f.readWire(r)
		return
	}
	f.p("off := %d", r.plan.Size)
	f.p("var (")
	f.p("n   int")
	f.p("err error")
	f.p(")")
	for _, pl := range r.plan.Payloads {
		f.readPayload(r, pl)
	}
	f.p("return off, nil")
	f.p("}")
	f.p("")
	f.readWire(r)
}

func (f *file) readPayload(r record, pl layout.Payload) {
	fld, x := r.field(pl.Field)
	count := "v." + fieldName(pl.CountName)

	if f.countSigned(r, fld) {
		f.p("if %s < 0 {", count)
		f.p("return 0, wire.NegativeCount(int64(%s), %q, %q)", count, r.plan.Name, pl.CountName)
		f.p("}")
	}

	target := "n"
	if pl.Extensible {
		target = "_"
	}
	f.p("if %s, err = wire.PayloadLen(b[off:], uint64(%s), %d, %q, %q); err != nil {",
		target, count, pl.ElemSize, r.plan.Name, pl.Name)
	f.p("return 0, err")
	f.p("}")

	elem := f.g.goType(fld.Type)
	switch {
	case pl.Borrowed:
		f.p("%s = wire.Borrow(b[off:], n)", x)
		f.p("off += n")
	case pl.ElemPlan == nil:
		f.p("%s = make([]%s, %s)", x, elem, count)
		f.p("for i := range %s {", x)
		f.p("%s[i] = %s", x, readScalar(pl.ElemScalar, elem, "b", offsetExpr("off", "i", pl.ElemSize)))
		f.p("}")
		f.p("off += n")
	case pl.Extensible:
		f.p("%s = make([]%s, %s)", x, elem, count)
		f.p("for i := range %s {", x)
		f.p("if n, err = %s[i].DecodeWire(b[off:]); err != nil {", x)
		f.p("return 0, err")
		f.p("}")
		f.p("off += n")
		f.p("}")
	default:
		f.p("%s = make([]%s, %s)", x, elem, count)
		f.p("for i := range %s {", x)
		f.p("%s[i].readWire(b[%s:])", x, offsetExpr("off", "i", pl.ElemSize))
		f.p("}")
		f.p("off += n")
	}
}

// readWire emits the method reading the prefix fields. Callers bounds check.
func (f *file) readWire(r record) {
	f.p("func (v *%s) readWire(b []byte) {", r.goName)
	for _, s := range r.plan.Slots {
		fld, x := r.field(s.Field)
		typ := f.g.goType(fld.Type)
		if s.ArrayLen == 0 {
			f.readElem(s, typ, strconv.Itoa(s.Offset), x)
			continue
		}
		f.p("for i := range %s {", x)
		f.readElem(s, typ, offsetExpr(strconv.Itoa(s.Offset), "i", s.ElemSize()), x+"[i]")
		f.p("}")
	}
	f.p("}")
	f.p("")
}

func (f *file) readElem(s layout.Slot, typ, off, x string) {
	if s.Elem != nil {
		f.p("%s.readWire(b[%s:])", x, off)
		return
	}
	f.p("%s = %s", x, readScalar(s.Scalar, typ, "b", off))
}
