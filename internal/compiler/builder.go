// Package compiler turns a parsed schema document into a resolved ir.Catalog.
//
// Compilation runs in three passes over the document, each in document
// order so output is reproducible:
//
//  1. register: every named declaration enters the SymbolTable and gets a
//     catalog slot.
//  2. resolveReferences: field, parameter, array-length, count and
//     generated-file references are bound.
//  3. checkStructWellFormedness: plain structs are verified fixed size and
//     acyclic, pointer fields are verified against their count fields.
//
// The first error aborts compilation.
package compiler

import (
	"go/token"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/schema"
)

type builder struct {
	doc  *schema.Document
	cat  *ir.Catalog
	syms *SymbolTable

	// Sources of catalog entries whose fields are bound in pass 2, indexed
	// like the catalog tables they feed.
	structSrc []*schema.Struct
	extSrc    []*schema.ExtensibleStruct
	funcSrc   []*schema.Function
	cmdSrc    [][]*schema.Command
}

// Build compiles doc into a catalog. The catalog is complete and indexed
// when err is nil.
func Build(doc *schema.Document) (*ir.Catalog, error) {
	b, err := build(doc)
	if err != nil {
		return nil, err
	}
	return b.cat, nil
}

func build(doc *schema.Document) (*builder, error) {
	b := &builder{
		doc:  doc,
		syms: NewSymbolTable(),
		cat: &ir.Catalog{
			Name:    doc.Name,
			Version: doc.Version.String(),
			Copyright: ir.Copyright{
				SPDX:   doc.Copyright.SPDX,
				Holder: doc.Copyright.Holder,
				Year:   doc.Copyright.Year.String(),
			},
		},
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, &CompileError{ErrCode: ErrCodeInvalidType, Field: "name", Message: "schema has no name", Pos: ir.Pos{File: doc.Source}}
	}

	if err := b.register(); err != nil {
		return nil, err
	}
	if err := b.resolveReferences(); err != nil {
		return nil, err
	}
	if err := b.checkStructWellFormedness(); err != nil {
		return nil, err
	}
	b.cat.Index()

	Logger().Debug("catalog built",
		zap.String("schema", doc.Name),
		zap.Int("enums", len(b.cat.Enums)),
		zap.Int("structs", len(b.cat.Structs)),
		zap.Int("extensible_structs", len(b.cat.Extensibles)),
		zap.Int("objects", len(b.cat.Objects)),
		zap.Int("protocols", len(b.cat.Protocols)),
		zap.Int("files", len(b.cat.Files)),
	)
	return b, nil
}

// BuildWithSymbols is Build that also returns the symbol table, for tools
// that report on declarations.
func BuildWithSymbols(doc *schema.Document) (*ir.Catalog, *SymbolTable, error) {
	b, err := build(doc)
	if err != nil {
		return nil, nil, err
	}
	return b.cat, b.syms, nil
}

func pos(p schema.Pos) ir.Pos {
	return ir.Pos{File: p.File, Line: p.Line, Column: p.Column}
}

func (b *builder) register() error {
	for di := range b.doc.Definitions {
		d := &b.doc.Definitions[di]
		p := pos(d.Pos)
		if d.Name == "" {
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: "definitions", Message: "definitions group has no name", Pos: p}
		}
		defIdx := len(b.cat.Definitions)
		if err := b.syms.Define(NSDefinitions, d.Name, Symbol{Kind: "definitions", Index: defIdx, Pos: p}); err != nil {
			return err
		}
		def := ir.Definitions{Name: d.Name, Pos: p}
		add := func(it ir.Item, err error) error {
			if err != nil {
				return err
			}
			def.Items = append(def.Items, it)
			return nil
		}

		for i := range d.Constants {
			if err := add(b.registerConstant(&d.Constants[i])); err != nil {
				return err
			}
		}
		for i := range d.Enums {
			if err := add(b.registerEnum(&d.Enums[i], "enum")); err != nil {
				return err
			}
		}
		for i := range d.Flags {
			if err := add(b.registerEnum(&d.Flags[i], "flags")); err != nil {
				return err
			}
		}
		for i := range d.Objects {
			if err := add(b.registerObject(&d.Objects[i])); err != nil {
				return err
			}
		}
		for i := range d.Structs {
			if err := add(b.registerStruct(&d.Structs[i])); err != nil {
				return err
			}
		}
		tags, err := b.registerSTypes(d, &def)
		if err != nil {
			return err
		}
		for i := range d.ExtensibleStructs {
			if err := add(b.registerExtensible(&d.ExtensibleStructs[i], tags[i], d.STypes)); err != nil {
				return err
			}
		}
		for i := range d.Functions {
			if err := add(b.registerFunction(&d.Functions[i])); err != nil {
				return err
			}
		}
		for i := range d.Protocols {
			if err := add(b.registerProtocol(&d.Protocols[i])); err != nil {
				return err
			}
		}
		b.cat.Definitions = append(b.cat.Definitions, def)
	}
	return nil
}

// defineType registers a type name, refusing primitive names.
func (b *builder) defineType(name, kind string, ref ir.TypeRef, p ir.Pos) error {
	if name == "" {
		return &CompileError{ErrCode: ErrCodeInvalidType, Field: kind, Message: "declaration has no name", Pos: p}
	}
	if _, ok := ir.LookupPrimitive(name); ok {
		return &CompileError{ErrCode: ErrCodeInvalidType, Field: name, Message: "name is reserved for a primitive type", Pos: p}
	}
	return b.syms.Define(NSType, name, Symbol{Kind: kind, Ref: ref, Index: ref.Index, Pos: p})
}

func (b *builder) registerConstant(c *schema.Constant) (ir.Item, error) {
	p := pos(c.Pos)
	prim, ok := ir.LookupPrimitive(c.Type)
	if !ok || prim == ir.Ptr || prim == ir.Void {
		return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidType, Field: c.Name, Message: "constant type " + strconv.Quote(c.Type) + " must be a sized primitive", Pos: p}
	}

	lit := strings.TrimSpace(c.Value.String())
	var value ir.IRValue
	switch {
	case prim.Integral():
		bits, err := ir.ParseInteger(prim, lit)
		if err != nil {
			return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: c.Name, Message: err.Error(), Pos: p}
		}
		if prim.Signed() || bits <= math.MaxInt64 {
			value = ir.IRInt(int64(bits))
		} else {
			value = ir.IRString(ir.FormatInteger(prim, bits))
		}
	case prim == ir.Bool:
		v, err := strconv.ParseBool(lit)
		if err != nil {
			return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: c.Name, Message: "invalid bool literal " + strconv.Quote(lit), Pos: p}
		}
		value = ir.IRBool(v)
	default:
		if err := ir.ParseScalar(prim, lit); err != nil {
			return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: c.Name, Message: err.Error(), Pos: p}
		}
		value = ir.IRString(lit)
	}

	idx := len(b.cat.Constants)
	if err := b.syms.Define(NSConstant, c.Name, Symbol{Kind: "constant", Index: idx, Pos: p}); err != nil {
		return ir.Item{}, err
	}
	b.cat.Constants = append(b.cat.Constants, ir.ConstantDef{Name: c.Name, Type: prim, Value: value, Pos: p})
	return ir.Item{Kind: ir.ItemConstant, Index: idx}, nil
}

func (b *builder) registerEnum(e *schema.Enum, kind string) (ir.Item, error) {
	p := pos(e.Pos)
	underlying := ir.U32
	if e.Type != "" {
		prim, ok := ir.LookupPrimitive(e.Type)
		if !ok || !prim.Integral() {
			return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidEnum, Field: e.Name, Message: "underlying type " + strconv.Quote(e.Type) + " is not an integral primitive", Pos: p}
		}
		underlying = prim
	}
	if len(e.Items) == 0 {
		return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidEnum, Field: e.Name, Message: kind + " has no items", Pos: p}
	}

	values, err := enumValues(e.Name, underlying, e.Items)
	if err != nil {
		return ir.Item{}, err
	}

	idx := len(b.cat.Enums)
	ref := ir.TypeRef{Kind: ir.KindEnum, Index: idx, Name: e.Name}
	if err := b.defineType(e.Name, kind, ref, p); err != nil {
		return ir.Item{}, err
	}
	b.cat.Enums = append(b.cat.Enums, ir.EnumType{
		Name:       e.Name,
		Underlying: underlying,
		Flags:      kind == "flags",
		Values:     values,
		Pos:        p,
	})
	return ir.Item{Kind: ir.ItemEnum, Index: idx}, nil
}

// enumValues parses items and rejects duplicate labels or values.
func enumValues(enum string, underlying ir.Primitive, items []schema.EnumItem) ([]ir.EnumValue, error) {
	labels := make(map[string]ir.Pos, len(items))
	seen := make(map[uint64]string, len(items))
	out := make([]ir.EnumValue, 0, len(items))
	for _, it := range items {
		p := pos(it.Pos)
		if it.Name == "" {
			return nil, &CompileError{ErrCode: ErrCodeInvalidEnum, Field: enum, Message: "item has no name", Pos: p}
		}
		if prev, dup := labels[it.Name]; dup {
			return nil, &DuplicateNameError{Kind: "enum label", Name: enum + "." + it.Name, Pos: p, Previous: prev}
		}
		labels[it.Name] = p

		v, err := ir.ParseInteger(underlying, it.Value.String())
		if err != nil {
			return nil, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: enum + "." + it.Name, Message: err.Error(), Pos: p}
		}
		if other, dup := seen[v]; dup {
			return nil, &CompileError{
				ErrCode: ErrCodeInvalidEnum,
				Field:   enum + "." + it.Name,
				Message: "value " + ir.FormatInteger(underlying, v) + " duplicates " + other,
				Pos:     p,
			}
		}
		seen[v] = it.Name
		out = append(out, ir.EnumValue{Label: it.Name, Value: v})
	}
	return out, nil
}

// registerSTypes collects the stype tags of a definitions group into its
// structure-type enum. The returned slice is indexed like
// d.ExtensibleStructs; untagged structs get nil.
func (b *builder) registerSTypes(d *schema.Definitions, def *ir.Definitions) ([]*ir.EnumValue, error) {
	tags := make([]*ir.EnumValue, len(d.ExtensibleStructs))
	var items []schema.EnumItem
	for _, es := range d.ExtensibleStructs {
		if es.SType != nil {
			items = append(items, *es.SType)
		}
	}
	if len(items) == 0 {
		return tags, nil
	}
	if d.STypes == "" {
		return nil, &CompileError{
			ErrCode: ErrCodeInvalidEnum,
			Field:   d.Name + ".stypes",
			Message: "extensible structs carry stype tags but the group names no stypes enum",
			Pos:     pos(d.Pos),
		}
	}

	values, err := enumValues(d.STypes, ir.U32, items)
	if err != nil {
		return nil, err
	}
	idx := len(b.cat.Enums)
	ref := ir.TypeRef{Kind: ir.KindEnum, Index: idx, Name: d.STypes}
	if err := b.defineType(d.STypes, "stypes", ref, pos(d.Pos)); err != nil {
		return nil, err
	}
	b.cat.Enums = append(b.cat.Enums, ir.EnumType{
		Name:       d.STypes,
		Underlying: ir.U32,
		STypes:     true,
		Values:     values,
		Pos:        pos(d.Pos),
	})
	def.Items = append(def.Items, ir.Item{Kind: ir.ItemEnum, Index: idx})

	vi := 0
	for i, es := range d.ExtensibleStructs {
		if es.SType != nil {
			v := values[vi]
			tags[i] = &v
			vi++
		}
	}
	return tags, nil
}

func (b *builder) registerStruct(s *schema.Struct) (ir.Item, error) {
	p := pos(s.Pos)
	idx := len(b.cat.Structs)
	if err := b.defineType(s.Name, "struct", ir.TypeRef{Kind: ir.KindStruct, Index: idx, Name: s.Name}, p); err != nil {
		return ir.Item{}, err
	}
	b.cat.Structs = append(b.cat.Structs, ir.PlainStruct{Name: s.Name, Pos: p})
	b.structSrc = append(b.structSrc, s)
	return ir.Item{Kind: ir.ItemStruct, Index: idx}, nil
}

func (b *builder) registerExtensible(s *schema.ExtensibleStruct, tag *ir.EnumValue, stypes string) (ir.Item, error) {
	p := pos(s.Pos)
	idx := len(b.cat.Extensibles)
	if err := b.defineType(s.Name, "extensible_struct", ir.TypeRef{Kind: ir.KindExtensible, Index: idx, Name: s.Name}, p); err != nil {
		return ir.Item{}, err
	}
	es := ir.ExtensibleStruct{Name: s.Name, SType: tag, Pos: p}
	if tag != nil {
		es.STypeEnum = stypes
	}
	b.cat.Extensibles = append(b.cat.Extensibles, es)
	b.extSrc = append(b.extSrc, s)
	return ir.Item{Kind: ir.ItemExtensible, Index: idx}, nil
}

// registerObject declares an opaque handle under its C name.
func (b *builder) registerObject(o *schema.Object) (ir.Item, error) {
	p := pos(o.Pos)
	idx := len(b.cat.Objects)
	if o.Go != "" && (!token.IsIdentifier(o.Go) || !token.IsExported(o.Go)) {
		return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidType, Field: o.FFI, Message: "go name " + strconv.Quote(o.Go) + " is not an exported Go identifier", Pos: p}
	}
	if err := b.defineType(o.FFI, "object", ir.TypeRef{Kind: ir.KindObject, Index: idx, Name: o.FFI}, p); err != nil {
		return ir.Item{}, err
	}
	b.cat.Objects = append(b.cat.Objects, ir.ObjectType{Name: o.FFI, GoName: o.Go, Pos: p})
	return ir.Item{Kind: ir.ItemObject, Index: idx}, nil
}

func (b *builder) registerFunction(f *schema.Function) (ir.Item, error) {
	p := pos(f.Pos)
	idx := len(b.cat.Functions)
	if f.Name == "" {
		return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidType, Field: "function", Message: "function has no name", Pos: p}
	}
	if err := b.syms.Define(NSFunction, f.Name, Symbol{Kind: "function", Index: idx, Pos: p}); err != nil {
		return ir.Item{}, err
	}
	b.cat.Functions = append(b.cat.Functions, ir.FunctionSig{Name: f.Name, Pos: p})
	b.funcSrc = append(b.funcSrc, f)
	return ir.Item{Kind: ir.ItemFunction, Index: idx}, nil
}

func (b *builder) registerProtocol(sp *schema.Protocol) (ir.Item, error) {
	p := pos(sp.Pos)
	idx := len(b.cat.Protocols)
	if sp.Name == "" {
		return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidType, Field: "protocol", Message: "protocol has no name", Pos: p}
	}
	if err := b.syms.Define(NSProtocol, sp.Name, Symbol{Kind: "protocol", Index: idx, Pos: p}); err != nil {
		return ir.Item{}, err
	}

	proto := ir.Protocol{Name: sp.Name, Version: sp.Version.String(), Pos: p}
	srcs := make([]*schema.Command, 0, len(sp.Commands))
	names := make(map[string]ir.Pos, len(sp.Commands))
	for i := range sp.Commands {
		sc := &sp.Commands[i]
		cp := pos(sc.Pos)
		if sc.Name == "" {
			return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidType, Field: sp.Name, Message: "command has no name", Pos: cp}
		}
		if prev, dup := names[sc.Name]; dup {
			return ir.Item{}, &DuplicateNameError{Kind: "command", Name: sp.Name + "." + sc.Name, Pos: cp, Previous: prev}
		}
		names[sc.Name] = cp

		dir, ok := ir.ParseDirection(sc.Direction)
		if !ok {
			return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidType, Field: sp.Name + "." + sc.Name, Message: "unknown direction " + strconv.Quote(sc.Direction), Pos: cp}
		}
		cmd := ir.Command{Name: sc.Name, Direction: dir, Pos: cp}
		if lit := sc.Opcode.String(); lit != "" {
			v, err := ir.ParseInteger(ir.U32, lit)
			if err != nil {
				return ir.Item{}, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: sp.Name + "." + sc.Name + ".opcode", Message: err.Error(), Pos: cp}
			}
			op := uint32(v)
			cmd.Opcode = &op
		}
		proto.Commands = append(proto.Commands, cmd)
		srcs = append(srcs, sc)
	}

	b.cat.Protocols = append(b.cat.Protocols, proto)
	b.cmdSrc = append(b.cmdSrc, srcs)
	return ir.Item{Kind: ir.ItemProtocol, Index: idx}, nil
}
