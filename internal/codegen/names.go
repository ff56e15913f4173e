package codegen

import (
	"fmt"
	"path"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/ir"
)

// NameCollisionError reports two schema declarations that generate the
// same Go identifier in one package, or the same field name in one record.
type NameCollisionError struct {
	Scope  string
	GoName string
	First  string
	Second string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s: %s and %s both generate Go name %s in %s",
		compiler.ErrCodeNameCollision, e.First, e.Second, e.GoName, e.Scope)
}

// Code returns compiler.ErrCodeNameCollision.
func (e *NameCollisionError) Code() string { return compiler.ErrCodeNameCollision }

// nameTable maps generated identifiers to the declaration that owns them.
// Methods are keyed "Type.Method".
type nameTable struct {
	scope string
	names map[string]string
}

func newNameTable(scope string) *nameTable {
	return &nameTable{scope: scope, names: make(map[string]string)}
}

func (t *nameTable) add(goName, entity string) error {
	if prev, ok := t.names[goName]; ok {
		return &NameCollisionError{Scope: t.scope, GoName: goName, First: prev, Second: entity}
	}
	t.names[goName] = entity
	return nil
}

// checkNames runs before any file is rendered. Go files sharing an output
// directory form one package and share one table; header files are C and
// are not checked.
func (g *Generator) checkNames() error {
	pkgs := make(map[string]*nameTable)
	for i := range g.cat.Files {
		spec := &g.cat.Files[i]
		if spec.Kind == ir.OutputHeader {
			continue
		}
		dir := path.Clean(spec.OutPath)
		t := pkgs[dir]
		if t == nil {
			t = newNameTable(fmt.Sprintf("package %s (%s)", g.packageName(spec), dir))
			pkgs[dir] = t
		}
		file := path.Join(spec.OutPath, spec.FileName)
		for _, d := range g.declarations(spec) {
			if err := t.add(d.name, d.entity+" in "+file); err != nil {
				return err
			}
		}
	}

	for _, s := range g.cat.Structs {
		if err := checkFieldNames("struct "+s.Name, s.Fields); err != nil {
			return err
		}
	}
	for _, s := range g.cat.Extensibles {
		if err := checkFieldNames("extensible struct "+s.Name, s.Fields); err != nil {
			return err
		}
	}
	for _, p := range g.cat.Protocols {
		for _, c := range p.Commands {
			if err := checkFieldNames("command "+p.Name+"."+c.Name, c.Fields); err != nil {
				return err
			}
		}
	}
	for _, fn := range g.cat.Functions {
		t := newNameTable("function " + fn.Name)
		for _, p := range fn.Params {
			if err := t.add(localName(p.Name), "parameter "+p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFieldNames(owner string, fields []ir.Field) error {
	t := newNameTable(owner)
	for _, f := range fields {
		if err := t.add(fieldName(f.Name), "field "+f.Name); err != nil {
			return err
		}
	}
	return nil
}

type declaration struct {
	name   string
	entity string
}

// declarations lists the package-level identifiers and methods a file of
// spec's kind declares.
func (g *Generator) declarations(spec *ir.GeneratedFileSpec) []declaration {
	kind := spec.Kind
	types := kind == ir.OutputGo || kind == ir.OutputCodec
	enc := kind == ir.OutputEncoder || kind == ir.OutputCodec
	dec := kind == ir.OutputDecoder || kind == ir.OutputCodec
	protos := kind == ir.OutputProtocol || kind == ir.OutputCodec
	ffi := kind == ir.OutputFFI

	var out []declaration
	add := func(name, entity string) {
		out = append(out, declaration{name, entity})
	}
	methods := func(recv, entity string, names ...string) {
		for _, m := range names {
			add(recv+"."+m, entity)
		}
	}
	record := func(name, entity string, command bool) {
		if types {
			add(name, entity)
		}
		if enc {
			methods(name, entity, "WireSize", "AppendWire", "Encode", "putWire")
		}
		if dec {
			methods(name, entity, "DecodeWire", "readWire")
			if command {
				methods(name, entity, "decodeBody")
			}
		}
	}

	cat := g.cat
	for _, it := range g.selectItems(spec) {
		switch it.Kind {
		case ir.ItemConstant:
			c := cat.Constants[it.Index]
			if types {
				add(goName(c.Name), "constant "+c.Name)
			}
		case ir.ItemEnum:
			e := cat.Enums[it.Index]
			if !types {
				continue
			}
			name := goName(e.Name)
			add(name, "enum "+e.Name)
			methods(name, "enum "+e.Name, "String")
			for _, v := range e.Values {
				add(name+goName(v.Label), "enum value "+e.Name+"."+v.Label)
			}
		case ir.ItemStruct:
			s := cat.Structs[it.Index]
			name := goName(s.Name)
			record(name, "struct "+s.Name, false)
			if ffi {
				add(name+"FFI", "native view of struct "+s.Name)
			}
		case ir.ItemExtensible:
			s := cat.Extensibles[it.Index]
			name := goName(s.Name)
			entity := "extensible struct " + s.Name
			record(name, entity, false)
			if types && s.SType != nil {
				methods(name, entity, "SType")
			}
			if ffi {
				add(name+"FFI", "native view of "+entity)
				methods(name, entity, "ToNative", "FromNative")
			}
		case ir.ItemObject:
			if ffi {
				add(g.objectName(it.Index), "object "+cat.Objects[it.Index].Name)
			}
		case ir.ItemFunction:
			fn := cat.Functions[it.Index]
			if ffi {
				add(goName(fn.Name)+"Func", "function "+fn.Name)
			}
		case ir.ItemProtocol:
			proto := cat.Protocols[it.Index]
			for _, c := range proto.Commands {
				entity := "command " + proto.Name + "." + c.Name
				name := commandName(proto.Name, c.Name)
				record(name, entity, true)
				if protos {
					add(opcodeConst(proto.Name, c.Name), "opcode of "+entity)
					methods(name, entity, "Opcode")
				}
			}
			if !protos {
				continue
			}
			entity := "protocol " + proto.Name
			opType := opcodeType(proto.Name)
			iface := goName(proto.Name) + "Command"
			add(opType, "opcode type of "+entity)
			methods(opType, entity, "String")
			add(iface, "command interface of "+entity)
			add("Decode"+iface, "dispatch decoder of "+entity)
			if proto.Version != "" {
				add(goName(proto.Name)+"ProtocolVersion", "version of "+entity)
			}
		}
	}
	return out
}
