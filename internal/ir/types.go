package ir

import "fmt"

// Pos is a schema source location carried for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	switch {
	case !p.IsValid():
		return p.File
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Kind discriminates the catalog table a TypeRef indexes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindEnum
	KindStruct
	KindExtensible
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindExtensible:
		return "extensible_struct"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// TypeRef is a resolved handle to one catalog entry. For primitives Index
// holds the Primitive value; otherwise it indexes the table named by Kind.
type TypeRef struct {
	Kind  Kind
	Index int
	Name  string
}

// PrimitiveRef returns the TypeRef of a primitive.
func PrimitiveRef(p Primitive) TypeRef {
	return TypeRef{Kind: KindPrimitive, Index: int(p), Name: p.String()}
}

// Primitive returns the primitive a TypeRef names, or PrimInvalid.
func (r TypeRef) Primitive() Primitive {
	if r.Kind != KindPrimitive {
		return PrimInvalid
	}
	return Primitive(r.Index)
}

// IsPrimitive reports whether r names the primitive p.
func (r TypeRef) IsPrimitive(p Primitive) bool {
	return r.Kind == KindPrimitive && Primitive(r.Index) == p
}

// Copyright is stamped into generated files.
type Copyright struct {
	SPDX   string
	Holder string
	Year   string
}

// EnumValue is one label of an enum. Value holds the two's complement bit
// pattern of the literal; see FormatInteger.
type EnumValue struct {
	Label string
	Value uint64
}

// EnumType is an enumeration, a flags bit set, or the structure-type enum
// collected from extensible struct tags.
type EnumType struct {
	Name       string
	Underlying Primitive
	Flags      bool
	STypes     bool
	Values     []EnumValue
	Pos        Pos
}

// ConstantDef is a named literal. Integral constants hold an IRInt, other
// literals an IRString of their source text, bools an IRBool.
type ConstantDef struct {
	Name  string
	Type  Primitive
	Value IRValue
	Pos   Pos
}

// Int returns the constant's value when it is integral.
func (c ConstantDef) Int() (int64, bool) {
	v, ok := c.Value.(IRInt)
	return int64(v), ok
}

// Field is a struct, extensible struct or command field.
//
// A field with ArrayLen > 0 is a fixed array embedded by value. A field with
// a non-empty Count is a pointer field: its elements live in a payload
// section and their number is held by the sibling field at CountIndex.
type Field struct {
	Name          string
	Type          TypeRef
	ArrayLen      int
	ArrayLenConst string
	Count         string
	CountIndex    int
	// Qualifier holds C type qualifiers ("const", "volatile") for headers.
	Qualifier string
	Pos       Pos
}

// IsPointer reports whether f is a pointer field.
func (f Field) IsPointer() bool {
	return f.Count != ""
}

// IsArray reports whether f is a fixed-length array.
func (f Field) IsArray() bool {
	return f.ArrayLen > 0
}

// PlainStruct is a fixed-size structure with no pointer fields anywhere in
// its transitive contents.
type PlainStruct struct {
	Name   string
	Fields []Field
	Pos    Pos
}

// ExtensibleStruct is a structure that may hold pointer fields.
type ExtensibleStruct struct {
	Name string
	// SType is the structure-type tag, nil when the struct is untagged.
	SType *EnumValue
	// STypeEnum names the enum collecting SType, empty when untagged.
	STypeEnum string
	Fields    []Field
	Pos       Pos
}

// Param is a function parameter.
type Param struct {
	Name      string
	Type      TypeRef
	Qualifier string
	Pos       Pos
}

// ObjectType is an opaque native handle. Name is its C spelling; GoName,
// when set, overrides the Go name derived from it. Objects only appear in
// function signatures.
type ObjectType struct {
	Name   string
	GoName string
	Pos    Pos
}

// FunctionSig is a native-callable routine signature.
type FunctionSig struct {
	Name   string
	Params []Param
	Return TypeRef
	Pos    Pos
}

// Direction is the flow of a protocol command.
type Direction uint8

const (
	Request Direction = iota
	Response
	Event
)

func (d Direction) String() string {
	switch d {
	case Response:
		return "response"
	case Event:
		return "event"
	default:
		return "request"
	}
}

// ParseDirection maps the schema spelling of a direction. The empty string
// means request.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "", "request":
		return Request, true
	case "response":
		return Response, true
	case "event":
		return Event, true
	}
	return Request, false
}

// Command is one protocol message. Opcode is nil when the schema asks for
// automatic assignment.
type Command struct {
	Name      string
	Direction Direction
	Opcode    *uint32
	Fields    []Field
	Pos       Pos
}

// Protocol is an ordered list of commands sharing one opcode space.
type Protocol struct {
	Name     string
	Version  string
	Commands []Command
	Pos      Pos
}

// ItemKind names the catalog table a definitions item points into.
type ItemKind uint8

const (
	ItemConstant ItemKind = iota
	ItemEnum
	ItemStruct
	ItemExtensible
	ItemFunction
	ItemProtocol
	ItemObject
)

func (k ItemKind) String() string {
	return [...]string{"constant", "enum", "struct", "extensible_struct", "function", "protocol", "object"}[k]
}

// Item points at one declaration of a Definitions group.
type Item struct {
	Kind  ItemKind
	Index int
}

// Definitions is a named group of declarations in document order.
type Definitions struct {
	Name  string
	Items []Item
	Pos   Pos
}

// OutputKind selects which generator writes a file.
type OutputKind string

const (
	OutputGo       OutputKind = "go"
	OutputEncoder  OutputKind = "encoder"
	OutputDecoder  OutputKind = "decoder"
	OutputProtocol OutputKind = "protocol"
	OutputFFI      OutputKind = "ffi"
	OutputHeader   OutputKind = "header"
	OutputCodec    OutputKind = "codec"
)

// OutputKinds lists every supported kind.
var OutputKinds = []OutputKind{
	OutputGo, OutputEncoder, OutputDecoder, OutputProtocol, OutputFFI, OutputHeader, OutputCodec,
}

// Valid reports whether k is a supported kind.
func (k OutputKind) Valid() bool {
	for _, o := range OutputKinds {
		if k == o {
			return true
		}
	}
	return false
}

// GeneratedFileSpec describes one output file. Instantiate indexes
// Catalog.Definitions.
type GeneratedFileSpec struct {
	OutPath     string
	FileName    string
	Kind        OutputKind
	Package     string
	Includes    []string
	Instantiate []int
	Pos         Pos
}

// Catalog is the compiled schema.
type Catalog struct {
	Name      string
	Version   string
	Copyright Copyright

	Constants   []ConstantDef
	Enums       []EnumType
	Structs     []PlainStruct
	Extensibles []ExtensibleStruct
	Objects     []ObjectType
	Functions   []FunctionSig
	Protocols   []Protocol
	Definitions []Definitions
	Files       []GeneratedFileSpec

	types map[string]TypeRef
}

// Index rebuilds the name lookup table. The compiler calls it once the
// catalog is complete.
func (c *Catalog) Index() {
	c.types = make(map[string]TypeRef, len(c.Enums)+len(c.Structs)+len(c.Extensibles)+len(c.Objects))
	for i, e := range c.Enums {
		c.types[e.Name] = TypeRef{Kind: KindEnum, Index: i, Name: e.Name}
	}
	for i, s := range c.Structs {
		c.types[s.Name] = TypeRef{Kind: KindStruct, Index: i, Name: s.Name}
	}
	for i, s := range c.Extensibles {
		c.types[s.Name] = TypeRef{Kind: KindExtensible, Index: i, Name: s.Name}
	}
	for i, o := range c.Objects {
		c.types[o.Name] = TypeRef{Kind: KindObject, Index: i, Name: o.Name}
	}
}

// LookupType resolves a type name, primitives included.
func (c *Catalog) LookupType(name string) (TypeRef, bool) {
	if p, ok := LookupPrimitive(name); ok {
		return PrimitiveRef(p), true
	}
	ref, ok := c.types[name]
	return ref, ok
}

// Enum returns the enum r points at.
func (c *Catalog) Enum(r TypeRef) *EnumType {
	if r.Kind != KindEnum {
		return nil
	}
	return &c.Enums[r.Index]
}

// Struct returns the plain struct r points at.
func (c *Catalog) Struct(r TypeRef) *PlainStruct {
	if r.Kind != KindStruct {
		return nil
	}
	return &c.Structs[r.Index]
}

// Extensible returns the extensible struct r points at.
func (c *Catalog) Extensible(r TypeRef) *ExtensibleStruct {
	if r.Kind != KindExtensible {
		return nil
	}
	return &c.Extensibles[r.Index]
}

// Object returns the object handle r points at.
func (c *Catalog) Object(r TypeRef) *ObjectType {
	if r.Kind != KindObject {
		return nil
	}
	return &c.Objects[r.Index]
}

// Scalar returns the primitive a field of type r encodes as: the primitive
// itself, or the underlying type of an enum. It returns PrimInvalid for
// struct types.
func (c *Catalog) Scalar(r TypeRef) Primitive {
	switch r.Kind {
	case KindPrimitive:
		return r.Primitive()
	case KindEnum:
		return c.Enums[r.Index].Underlying
	}
	return PrimInvalid
}

// Constant returns the named constant.
func (c *Catalog) Constant(name string) (*ConstantDef, bool) {
	for i := range c.Constants {
		if c.Constants[i].Name == name {
			return &c.Constants[i], true
		}
	}
	return nil, false
}

// Protocol returns the named protocol.
func (c *Catalog) Protocol(name string) (*Protocol, bool) {
	for i := range c.Protocols {
		if c.Protocols[i].Name == name {
			return &c.Protocols[i], true
		}
	}
	return nil, false
}
