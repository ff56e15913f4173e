package codegen

import (
	"fmt"
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// bridge emits the native views of extensible structs and opaque handles,
// aliases for types whose native layout is their Go layout, and function
// signature types.
func (f *file) bridge() {
	cat := f.g.cat
	for _, it := range f.items {
		switch it.Kind {
		case ir.ItemStruct:
			name := goName(cat.Structs[it.Index].Name)
			f.p("// %sFFI is %s: plain structs share their native layout.", name, name)
			f.p("type %sFFI = %s", name, name)
			f.p("")
		case ir.ItemExtensible:
			f.nativeStruct(it.Index)
		case ir.ItemObject:
			f.use("unsafe")
			name := f.g.objectName(it.Index)
			f.p("// %s is an opaque native %s handle.", name, cat.Objects[it.Index].Name)
			f.p("type %s unsafe.Pointer", name)
			f.p("")
		case ir.ItemFunction:
			f.funcType(&cat.Functions[it.Index])
		}
	}
}

// ffiElem is the native spelling of one element of ref.
func (g *Generator) ffiElem(ref ir.TypeRef) string {
	switch {
	case ref.IsPrimitive(ir.U8), ref.IsPrimitive(ir.I8):
		return "byte"
	case ref.Kind == ir.KindExtensible:
		return goName(ref.Name) + "FFI"
	}
	return g.goType(ref)
}

func (f *file) nativeStruct(i int) {
	r := f.g.extRecord(i)
	native := r.goName + "FFI"

	f.p("// %s is the native layout of %s: pointer fields are raw pointers", native, r.goName)
	f.p("// next to their counts.")
	f.p("type %s struct {", native)
	for _, fld := range r.fields {
		if fld.IsPointer() {
			f.p("%s *%s", fieldName(fld.Name), f.g.ffiElem(fld.Type))
			continue
		}
		f.p("%s %s", fieldName(fld.Name), f.g.fieldType(fld))
	}
	f.p("}")
	f.p("")

	f.use("runtime")
	if len(r.plan.Payloads) > 0 {
		f.use("unsafe")
		f.use(WireImport)
	}

	f.p("// ToNative returns the native view of v and pins every Go array the view")
	f.p("// points to with p, so the view may be passed to C. Call p.Unpin once C")
	f.p("// is done with the view. Plain and scalar payloads are shared with v and")
	f.p("// must not be modified while pinned; extensible elements are converted")
	f.p("// into new storage.")
	f.p("func (v *%s) ToNative(p *runtime.Pinner) %s {", r.goName, native)
	f.p("n := %s{", native)
	for _, fld := range r.fields {
		if !fld.IsPointer() {
			f.p("%s: v.%s,", fieldName(fld.Name), fieldName(fld.Name))
		}
	}
	f.p("}")
	for j, fld := range r.fields {
		if !fld.IsPointer() {
			continue
		}
		name := fieldName(fld.Name)
		f.p("if len(v.%s) > 0 {", name)
		if fld.Type.Kind != ir.KindExtensible {
			f.p("n.%s = unsafe.SliceData(v.%s)", name, name)
		} else {
			tmp := fmt.Sprintf("elems%d", j)
			f.p("%s := make([]%s, len(v.%s))", tmp, f.g.ffiElem(fld.Type), name)
			f.p("for i := range v.%s {", name)
			f.p("%s[i] = v.%s[i].ToNative(p)", tmp, name)
			f.p("}")
			f.p("n.%s = unsafe.SliceData(%s)", name, tmp)
		}
		f.p("p.Pin(n.%s)", name)
		f.p("}")
	}
	f.p("return n")
	f.p("}")
	f.p("")

	f.p("// FromNative sets v from a native view. Plain and scalar payloads alias")
	f.p("// native memory. A nil pointer with a non-zero count fails with")
	f.p("// *wire.NilPointerError; a negative count or one no slice can hold fails")
	f.p("// with *wire.MalformedError.")
	f.p("func (v *%s) FromNative(n *%s) error {", r.goName, native)
	for _, fld := range r.fields {
		if !fld.IsPointer() {
			continue
		}
		name, count := fieldName(fld.Name), fieldName(fld.Count)
		if f.countSigned(r, fld) {
			f.p("if n.%s < 0 {", count)
			f.p("return wire.NegativeCount(int64(n.%s), %q, %q)", count, r.plan.Name, fld.Count)
			f.p("}")
		}
		f.p("if n.%s == nil && n.%s != 0 {", name, count)
		f.p("return &wire.NilPointerError{Type: %q, Field: %q, Count: uint64(n.%s)}", r.plan.Name, fld.Name, count)
		f.p("}")
		if f.countWide(r, fld) {
			f.use("math")
			f.p("if uint64(n.%s) > math.MaxInt/uint64(unsafe.Sizeof(*n.%s)) {", count, name)
			f.p("return &wire.MalformedError{Type: %q, Detail: %q}", r.plan.Name, fld.Count+": count exceeds the address space")
			f.p("}")
		}
	}
	for _, fld := range r.fields {
		if !fld.IsPointer() {
			f.p("v.%s = n.%s", fieldName(fld.Name), fieldName(fld.Name))
		}
	}
	for j, fld := range r.fields {
		if !fld.IsPointer() {
			continue
		}
		name, count := fieldName(fld.Name), fieldName(fld.Count)
		if fld.Type.Kind != ir.KindExtensible {
			f.p("v.%s = unsafe.Slice(n.%s, n.%s)", name, name, count)
			continue
		}
		tmp := fmt.Sprintf("elems%d", j)
		f.p("%s := unsafe.Slice(n.%s, n.%s)", tmp, name, count)
		f.p("v.%s = make([]%s, len(%s))", name, f.g.goType(fld.Type), tmp)
		f.p("for i := range %s {", tmp)
		f.p("if err := v.%s[i].FromNative(&%s[i]); err != nil {", name, tmp)
		f.p("return err")
		f.p("}")
		f.p("}")
	}
	f.p("return nil")
	f.p("}")
	f.p("")
}

func (f *file) countSigned(r record, fld ir.Field) bool {
	if fld.CountIndex < 0 || fld.CountIndex >= len(r.fields) {
		return false
	}
	return f.g.cat.Scalar(r.fields[fld.CountIndex].Type).Signed()
}

// countWide reports whether fld's count type can exceed the largest slice
// length.
func (f *file) countWide(r record, fld ir.Field) bool {
	if fld.CountIndex < 0 || fld.CountIndex >= len(r.fields) {
		return false
	}
	switch f.g.cat.Scalar(r.fields[fld.CountIndex].Type) {
	case ir.U64, ir.I64, ir.Usize:
		return true
	}
	return false
}

// funcType emits a Go func type matching a native signature.
func (f *file) funcType(fn *ir.FunctionSig) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		typ := f.g.goType(p.Type)
		if p.Type.Kind == ir.KindExtensible {
			typ += "FFI"
		}
		if p.Type.IsPrimitive(ir.Ptr) {
			f.use("unsafe")
		}
		params[i] = localName(p.Name) + " " + typ
	}
	result := ""
	if !fn.Return.IsPrimitive(ir.Void) {
		result = " " + f.g.goType(fn.Return)
		if fn.Return.Kind == ir.KindExtensible {
			result += "FFI"
		}
		if fn.Return.IsPrimitive(ir.Ptr) {
			f.use("unsafe")
		}
	}
	name := goName(fn.Name) + "Func"
	f.p("// %s is the signature of the native %s.", name, fn.Name)
	f.p("type %s func(%s)%s", name, strings.Join(params, ", "), result)
	f.p("")
}
