package codegen

import (
	"strconv"

	"github.com/roach88/apigen/internal/ir"
)

// types emits constants, enums and the struct types of every record.
func (f *file) types() {
	cat := f.g.cat
	for _, it := range f.items {
		switch it.Kind {
		case ir.ItemConstant:
			f.constant(&cat.Constants[it.Index])
		case ir.ItemEnum:
			f.enum(&cat.Enums[it.Index])
		case ir.ItemStruct:
			r := f.g.structRecord(it.Index)
			f.p("// %s is a plain struct with a fixed %d-byte encoding.", r.goName, r.plan.Size)
			f.structType(r)
		case ir.ItemExtensible:
			f.extensibleType(it.Index)
		case ir.ItemProtocol:
			for _, r := range f.g.commandRecords(it.Index) {
				f.p("// %s is the %s %s %s.", r.goName, r.proto.Name, r.cmd.Name, r.cmd.Direction)
				f.structType(r)
			}
		}
	}
}

func (f *file) constant(c *ir.ConstantDef) {
	var lit string
	switch v := c.Value.(type) {
	case ir.IRInt:
		lit = strconv.FormatInt(int64(v), 10)
	case ir.IRBool:
		lit = strconv.FormatBool(bool(v))
	case ir.IRString:
		lit = string(v)
	default:
		return
	}
	f.p("const %s %s = %s", goName(c.Name), goPrimitives[c.Type], lit)
	f.p("")
}

func (f *file) enum(e *ir.EnumType) {
	name := goName(e.Name)
	base := goPrimitives[e.Underlying]
	switch {
	case e.STypes:
		f.p("// %s tags extensible structs with their structure type.", name)
	case e.Flags:
		f.p("// %s is a set of bit flags.", name)
	}
	f.p("type %s %s", name, base)
	f.p("")
	f.p("const (")
	for _, v := range e.Values {
		f.p("%s %s = %s", name+goName(v.Label), name, ir.FormatInteger(e.Underlying, v.Value))
	}
	f.p(")")
	f.p("")

	f.use("fmt")
	f.p("func (v %s) String() string {", name)
	if e.Flags {
		f.use("strings")
		f.p("if v == 0 {")
		f.p(`return "0"`)
		f.p("}")
		f.p("var parts []string")
		f.p("for _, f := range [...]struct {")
		f.p("bit  %s", name)
		f.p("name string")
		f.p("}{")
		for _, v := range e.Values {
			f.p("{%s, %q},", name+goName(v.Label), v.Label)
		}
		f.p("} {")
		f.p("if f.bit != 0 && v&f.bit == f.bit {")
		f.p("parts = append(parts, f.name)")
		f.p("v &^= f.bit")
		f.p("}")
		f.p("}")
		f.p("if v != 0 {")
		f.p(`parts = append(parts, fmt.Sprintf("%%#x", %s(v)))`, base)
		f.p("}")
		f.p(`return strings.Join(parts, "|")`)
		f.p("}")
		f.p("")
		return
	}
	f.p("switch v {")
	for _, v := range e.Values {
		f.p("case %s:", name+goName(v.Label))
		f.p("return %q", v.Label)
	}
	f.p("}")
	f.p(`return fmt.Sprintf("%s(%%d)", %s(v))`, name, base)
	f.p("}")
	f.p("")
}

func (f *file) structType(r record) {
	f.p("type %s struct {", r.goName)
	for _, fld := range r.fields {
		if fld.IsPointer() {
			f.p("%s %s // %s elements", fieldName(fld.Name), f.g.fieldType(fld), fieldName(fld.Count))
			continue
		}
		f.p("%s %s", fieldName(fld.Name), f.g.fieldType(fld))
	}
	f.p("}")
	f.p("")
}

func (f *file) extensibleType(i int) {
	s := &f.g.cat.Extensibles[i]
	r := f.g.extRecord(i)
	f.p("// %s is an extensible struct: a %d-byte prefix followed by its payloads.", r.goName, r.plan.Size)
	f.structType(r)
	if s.SType == nil {
		return
	}
	f.p("// SType returns the structure type of %s.", r.goName)
	f.p("func (*%s) SType() %s {", r.goName, goName(s.STypeEnum))
	f.p("return %s", goName(s.STypeEnum)+goName(s.SType.Label))
	f.p("}")
	f.p("")
}
