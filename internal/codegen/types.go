package codegen

import (
	"fmt"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/layout"
)

var goPrimitives = map[ir.Primitive]string{
	ir.U8:    "uint8",
	ir.I8:    "int8",
	ir.U16:   "uint16",
	ir.I16:   "int16",
	ir.U32:   "uint32",
	ir.I32:   "int32",
	ir.U64:   "uint64",
	ir.I64:   "int64",
	ir.F32:   "float32",
	ir.F64:   "float64",
	ir.Bool:  "bool",
	ir.Usize: "uint64",
	ir.Ptr:   "unsafe.Pointer",
}

// goType is the Go spelling of a single value of ref.
func (g *Generator) goType(ref ir.TypeRef) string {
	switch ref.Kind {
	case ir.KindPrimitive:
		return goPrimitives[ref.Primitive()]
	case ir.KindObject:
		return g.objectName(ref.Index)
	}
	return goName(ref.Name)
}

// objectName is the Go type of an opaque handle.
func (g *Generator) objectName(i int) string {
	if o := g.cat.Objects[i]; o.GoName != "" {
		return o.GoName
	}
	return goName(g.cat.Objects[i].Name)
}

// fieldType is the Go type of a record field: an array, a slice for
// pointer fields, or the element type.
func (g *Generator) fieldType(fld ir.Field) string {
	switch {
	case fld.IsPointer() && (fld.Type.IsPrimitive(ir.U8) || fld.Type.IsPrimitive(ir.I8)):
		return "[]byte"
	case fld.IsPointer():
		return "[]" + g.goType(fld.Type)
	case fld.IsArray():
		return fmt.Sprintf("[%d]%s", fld.ArrayLen, g.goType(fld.Type))
	}
	return g.goType(fld.Type)
}

// record is one type with a wire encoding.
type record struct {
	goName  string
	fields  []ir.Field
	plan    *layout.Plan
	command bool
	// Set for commands.
	proto  *ir.Protocol
	cmd    *ir.Command
	opcode uint32
}

func (r record) field(i int) (ir.Field, string) {
	fld := r.fields[i]
	return fld, "v." + fieldName(fld.Name)
}

func (g *Generator) structRecord(i int) record {
	s := g.cat.Structs[i]
	return record{goName: goName(s.Name), fields: s.Fields, plan: g.structs[i]}
}

func (g *Generator) extRecord(i int) record {
	s := g.cat.Extensibles[i]
	return record{goName: goName(s.Name), fields: s.Fields, plan: g.exts[i]}
}

func (g *Generator) commandRecords(pi int) []record {
	proto := &g.cat.Protocols[pi]
	out := make([]record, len(proto.Commands))
	for ci, cmd := range proto.Commands {
		out[ci] = record{
			goName:  commandName(proto.Name, cmd.Name),
			fields:  cmd.Fields,
			plan:    g.cmds[pi][ci],
			command: true,
			proto:   proto,
			cmd:     &proto.Commands[ci],
			opcode:  g.tables[pi].Opcode(ci),
		}
	}
	return out
}

func commandName(proto, cmd string) string {
	return goName(proto) + goName(cmd)
}

func opcodeType(proto string) string {
	return goName(proto) + "Opcode"
}

func opcodeConst(proto, cmd string) string {
	return opcodeType(proto) + goName(cmd)
}

// offsetExpr renders base+idx*stride with the trivial terms dropped.
func offsetExpr(base, idx string, stride int) string {
	term := idx
	if stride != 1 {
		term = fmt.Sprintf("%s*%d", idx, stride)
	}
	if base == "" || base == "0" {
		return term
	}
	return base + "+" + term
}

// putScalar writes x as primitive p into buf at off.
func putScalar(p ir.Primitive, buf, off, x string) string {
	switch p {
	case ir.U8, ir.I8:
		return fmt.Sprintf("%s[%s] = uint8(%s)", buf, off, x)
	case ir.Bool:
		return fmt.Sprintf("wire.PutBool(%s[%s:], %s)", buf, off, x)
	case ir.U16, ir.I16:
		return fmt.Sprintf("wire.Order.PutUint16(%s[%s:], uint16(%s))", buf, off, x)
	case ir.U32, ir.I32:
		return fmt.Sprintf("wire.Order.PutUint32(%s[%s:], uint32(%s))", buf, off, x)
	case ir.F32:
		return fmt.Sprintf("wire.PutFloat32(%s[%s:], float32(%s))", buf, off, x)
	case ir.F64:
		return fmt.Sprintf("wire.PutFloat64(%s[%s:], float64(%s))", buf, off, x)
	}
	return fmt.Sprintf("wire.Order.PutUint64(%s[%s:], uint64(%s))", buf, off, x)
}

// appendScalar appends x as primitive p to b.
func appendScalar(p ir.Primitive, x string) string {
	switch p {
	case ir.U8, ir.I8:
		return fmt.Sprintf("append(b, uint8(%s))", x)
	case ir.Bool:
		return fmt.Sprintf("wire.AppendBool(b, %s)", x)
	case ir.U16, ir.I16:
		return fmt.Sprintf("wire.Order.AppendUint16(b, uint16(%s))", x)
	case ir.U32, ir.I32:
		return fmt.Sprintf("wire.Order.AppendUint32(b, uint32(%s))", x)
	case ir.F32:
		return fmt.Sprintf("wire.AppendFloat32(b, float32(%s))", x)
	case ir.F64:
		return fmt.Sprintf("wire.AppendFloat64(b, float64(%s))", x)
	}
	return fmt.Sprintf("wire.Order.AppendUint64(b, uint64(%s))", x)
}

// readScalar reads primitive p from buf at off as Go type typ.
func readScalar(p ir.Primitive, typ, buf, off string) string {
	switch p {
	case ir.U8, ir.I8:
		return fmt.Sprintf("%s(%s[%s])", typ, buf, off)
	case ir.Bool:
		return fmt.Sprintf("wire.Bool(%s[%s:])", buf, off)
	case ir.U16, ir.I16:
		return fmt.Sprintf("%s(wire.Order.Uint16(%s[%s:]))", typ, buf, off)
	case ir.U32, ir.I32:
		return fmt.Sprintf("%s(wire.Order.Uint32(%s[%s:]))", typ, buf, off)
	case ir.F32:
		return fmt.Sprintf("%s(wire.Float32(%s[%s:]))", typ, buf, off)
	case ir.F64:
		return fmt.Sprintf("%s(wire.Float64(%s[%s:]))", typ, buf, off)
	}
	return fmt.Sprintf("%s(wire.Order.Uint64(%s[%s:]))", typ, buf, off)
}
