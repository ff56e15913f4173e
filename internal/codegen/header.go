package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

var cPrimitives = map[ir.Primitive]string{
	ir.U8:    "uint8_t",
	ir.I8:    "int8_t",
	ir.U16:   "uint16_t",
	ir.I16:   "int16_t",
	ir.U32:   "uint32_t",
	ir.I32:   "int32_t",
	ir.U64:   "uint64_t",
	ir.I64:   "int64_t",
	ir.F32:   "float",
	ir.F64:   "double",
	ir.Bool:  "bool",
	ir.Usize: "size_t",
	ir.Ptr:   "void*",
	ir.Void:  "void",
}

var defaultIncludes = []string{
	"#include <stdbool.h>",
	"#include <stddef.h>",
	"#include <stdint.h>",
}

func cType(ref ir.TypeRef) string {
	if ref.Kind == ir.KindPrimitive {
		return cPrimitives[ref.Primitive()]
	}
	return ref.Name
}

// cLiteral renders an integral constant with the suffix its width needs.
func cLiteral(p ir.Primitive, lit string) string {
	switch p {
	case ir.U64, ir.Usize:
		return lit + "ULL"
	case ir.I64:
		return lit + "LL"
	case ir.U32:
		return lit + "U"
	}
	return lit
}

// header writes a C header declaring the instantiated definitions.
func (f *file) header() {
	var w strings.Builder
	f.stamp(&w)
	f.body.WriteString(w.String())

	guard := macroName(f.spec.FileName) + "_"
	f.p("")
	f.p("#ifndef %s", guard)
	f.p("#define %s", guard)
	f.p("")
	includes := f.spec.Includes
	if len(includes) == 0 {
		includes = defaultIncludes
	}
	for _, inc := range includes {
		f.p("%s", inc)
	}
	f.p("")
	f.p("#ifdef __cplusplus")
	f.p(`extern "C" {`)
	f.p("#endif")
	f.p("")

	cat := f.g.cat
	for _, it := range f.items {
		switch it.Kind {
		case ir.ItemConstant:
			f.cConstant(&cat.Constants[it.Index])
		case ir.ItemEnum:
			f.cEnum(&cat.Enums[it.Index])
		case ir.ItemStruct:
			s := &cat.Structs[it.Index]
			f.cStruct(s.Name, s.Fields)
		case ir.ItemExtensible:
			s := &cat.Extensibles[it.Index]
			f.cStruct(s.Name, s.Fields)
		case ir.ItemObject:
			f.p("typedef void* %s;", cat.Objects[it.Index].Name)
			f.p("")
		case ir.ItemFunction:
			f.cFunction(&cat.Functions[it.Index])
		case ir.ItemProtocol:
			f.cOpcodes(it.Index)
		}
	}

	f.p("#ifdef __cplusplus")
	f.p("}")
	f.p("#endif")
	f.p("")
	f.p("#endif  // %s", guard)
}

func (f *file) cConstant(c *ir.ConstantDef) {
	var lit string
	switch v := c.Value.(type) {
	case ir.IRInt:
		lit = cLiteral(c.Type, strconv.FormatInt(int64(v), 10))
	case ir.IRBool:
		lit = strconv.FormatBool(bool(v))
	case ir.IRString:
		lit = string(v)
		if c.Type.Integral() {
			lit = cLiteral(c.Type, lit)
		}
	default:
		return
	}
	f.p("#define %s ((%s)%s)", macroName(c.Name), cPrimitives[c.Type], lit)
	f.p("")
}

func (f *file) cEnum(e *ir.EnumType) {
	f.p("typedef %s %s;", cPrimitives[e.Underlying], e.Name)
	prefix := macroName(e.Name)
	for _, v := range e.Values {
		f.p("#define %s_%s ((%s)%s)", prefix, macroName(v.Label), e.Name,
			cLiteral(e.Underlying, ir.FormatInteger(e.Underlying, v.Value)))
	}
	f.p("")
}

// qualified prefixes a C type with a qualifier.
func qualified(qual, typ string) string {
	if qual == "" {
		return typ
	}
	return qual + " " + typ
}

// cStruct declares a struct typedef. Pointer fields become const pointers
// to their elements; their counts are ordinary fields.
func (f *file) cStruct(name string, fields []ir.Field) {
	f.p("typedef struct %s {", name)
	for _, fld := range fields {
		elem := cType(fld.Type)
		if fld.Type.Kind == ir.KindStruct || fld.Type.Kind == ir.KindExtensible {
			if fld.IsPointer() {
				elem = "struct " + elem
			}
		}
		switch {
		case fld.IsPointer():
			qual := "const"
			if strings.Contains(fld.Qualifier, "volatile") {
				qual = "const volatile"
			}
			f.p("  %s* %s;", qualified(qual, elem), fld.Name)
		case fld.IsArray():
			f.p("  %s %s[%d];", qualified(fld.Qualifier, elem), fld.Name, fld.ArrayLen)
		default:
			f.p("  %s %s;", qualified(fld.Qualifier, elem), fld.Name)
		}
	}
	f.p("} %s;", name)
	f.p("")
}

func (f *file) cFunction(fn *ir.FunctionSig) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = qualified(p.Qualifier, cType(p.Type)) + " " + p.Name
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	f.p("%s %s(%s);", cType(fn.Return), fn.Name, strings.Join(params, ", "))
	f.p("")
}

func (f *file) cOpcodes(pi int) {
	proto := &f.g.cat.Protocols[pi]
	prefix := macroName(proto.Name) + "_OPCODE"
	for _, e := range f.g.tables[pi].Entries {
		f.p("#define %s_%s %s", prefix, macroName(e.Name), fmt.Sprintf("((uint32_t)%dU)", e.Opcode))
	}
	f.p("")
}
