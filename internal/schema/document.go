// Package schema holds the untyped document tree produced by the schema
// front-ends. Names and type references are plain strings here; resolving
// them is the compiler's job.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pos is a location in a schema document. The zero Pos is unknown.
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

// Literal is a scalar written either as a number or as a string in the
// source document. It keeps the raw text; interpretation happens during
// compilation.
type Literal string

// UnmarshalJSON accepts JSON strings, numbers and booleans.
func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Literal(strings.TrimSpace(s))
	case '{', '[':
		return fmt.Errorf("literal must be a scalar, got %s", data)
	default:
		if string(data) == "null" {
			*l = ""
			return nil
		}
		*l = Literal(data)
	}
	return nil
}

// UnmarshalYAML accepts any scalar node.
func (l *Literal) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: literal must be a scalar", n.Line)
	}
	*l = Literal(strings.TrimSpace(n.Value))
	return nil
}

// String returns the raw literal text.
func (l Literal) String() string {
	return string(l)
}

// Document is the root of a parsed schema.
type Document struct {
	Name           string          `json:"name" yaml:"name"`
	Version        Literal         `json:"version,omitempty" yaml:"version,omitempty"`
	Copyright      Copyright       `json:"copyright,omitempty" yaml:"copyright,omitempty"`
	Definitions    []Definitions   `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	GeneratedFiles []GeneratedFile `json:"generated_files,omitempty" yaml:"generated_files,omitempty"`

	// Source is the path the document was loaded from.
	Source string `json:"-" yaml:"-"`
}

// Copyright is stamped into every generated file.
type Copyright struct {
	SPDX   string  `json:"spdx,omitempty" yaml:"spdx,omitempty"`
	Holder string  `json:"holder,omitempty" yaml:"holder,omitempty"`
	Year   Literal `json:"year,omitempty" yaml:"year,omitempty"`
}

// Definitions is a named group of declarations.
type Definitions struct {
	Name              string             `json:"name" yaml:"name"`
	Constants         []Constant         `json:"constants,omitempty" yaml:"constants,omitempty"`
	Enums             []Enum             `json:"enums,omitempty" yaml:"enums,omitempty"`
	Flags             []Enum             `json:"flags,omitempty" yaml:"flags,omitempty"`
	Structs           []Struct           `json:"structs,omitempty" yaml:"structs,omitempty"`
	STypes            string             `json:"stypes,omitempty" yaml:"stypes,omitempty"`
	ExtensibleStructs []ExtensibleStruct `json:"extensible_structs,omitempty" yaml:"extensible_structs,omitempty"`
	Objects           []Object           `json:"objects,omitempty" yaml:"objects,omitempty"`
	Functions         []Function         `json:"functions,omitempty" yaml:"functions,omitempty"`
	Protocols         []Protocol         `json:"protocols,omitempty" yaml:"protocols,omitempty"`
	Pos               Pos                `json:"-" yaml:"-"`
}

// Constant is a named literal.
type Constant struct {
	Name  string  `json:"name" yaml:"name"`
	Type  string  `json:"type" yaml:"type"`
	Value Literal `json:"value" yaml:"value"`
	Pos   Pos     `json:"-" yaml:"-"`
}

// Enum is an enumeration or, when listed under flags, a bit set.
type Enum struct {
	Name  string     `json:"name" yaml:"name"`
	Type  string     `json:"type" yaml:"type"`
	Items []EnumItem `json:"items,omitempty" yaml:"items,omitempty"`
	Pos   Pos        `json:"-" yaml:"-"`
}

// EnumItem is one label of an enum, or the stype tag of an extensible struct.
type EnumItem struct {
	Name  string  `json:"name" yaml:"name"`
	Value Literal `json:"value" yaml:"value"`
	Pos   Pos     `json:"-" yaml:"-"`
}

// Member is a struct field, command field, or function parameter.
//
// Type names a primitive or a declared type, or uses the "[T; N]" array
// form. Length gives a fixed array length (integer or constant name). Count
// makes the member a pointer field whose element count is held by the named
// sibling member.
type Member struct {
	Name      string  `json:"name" yaml:"name"`
	Type      string  `json:"type" yaml:"type"`
	Length    Literal `json:"length,omitempty" yaml:"length,omitempty"`
	Count     string  `json:"count,omitempty" yaml:"count,omitempty"`
	Qualifier string  `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Pos       Pos     `json:"-" yaml:"-"`
}

// Struct is a plain, fixed-size structure.
type Struct struct {
	Name    string   `json:"name" yaml:"name"`
	Members []Member `json:"members,omitempty" yaml:"members,omitempty"`
	Pos     Pos      `json:"-" yaml:"-"`
}

// ExtensibleStruct may contain pointer fields.
type ExtensibleStruct struct {
	Name    string    `json:"name" yaml:"name"`
	SType   *EnumItem `json:"stype,omitempty" yaml:"stype,omitempty"`
	Members []Member  `json:"members,omitempty" yaml:"members,omitempty"`
	Pos     Pos       `json:"-" yaml:"-"`
}

// Object is an opaque native handle type, named by its C spelling. Go
// optionally overrides the derived Go name.
type Object struct {
	FFI string `json:"ffi" yaml:"ffi"`
	Go  string `json:"go,omitempty" yaml:"go,omitempty"`
	Pos Pos    `json:"-" yaml:"-"`
}

// Function is a native-callable routine signature.
type Function struct {
	Name   string   `json:"name" yaml:"name"`
	Return string   `json:"return,omitempty" yaml:"return,omitempty"`
	Params []Member `json:"params,omitempty" yaml:"params,omitempty"`
	Pos    Pos      `json:"-" yaml:"-"`
}

// Protocol is an ordered set of commands sharing one opcode namespace.
type Protocol struct {
	Name     string    `json:"name" yaml:"name"`
	Version  Literal   `json:"version,omitempty" yaml:"version,omitempty"`
	Commands []Command `json:"commands,omitempty" yaml:"commands,omitempty"`
	Pos      Pos       `json:"-" yaml:"-"`
}

// Command is one protocol message. An empty Opcode requests auto-assignment.
type Command struct {
	Name      string   `json:"name" yaml:"name"`
	Direction string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	Opcode    Literal  `json:"opcode,omitempty" yaml:"opcode,omitempty"`
	Members   []Member `json:"members,omitempty" yaml:"members,omitempty"`
	Pos       Pos      `json:"-" yaml:"-"`
}

// GeneratedFile selects definitions and an output kind for one emitted file.
type GeneratedFile struct {
	OutPath     string   `json:"out_path,omitempty" yaml:"out_path,omitempty"`
	FileName    string   `json:"file_name" yaml:"file_name"`
	Kind        string   `json:"kind" yaml:"kind"`
	Package     string   `json:"package,omitempty" yaml:"package,omitempty"`
	Includes    []string `json:"includes,omitempty" yaml:"includes,omitempty"`
	Instantiate []string `json:"instantiate,omitempty" yaml:"instantiate,omitempty"`
	Pos         Pos      `json:"-" yaml:"-"`
}
