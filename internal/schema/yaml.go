package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML reads a schema written as YAML. Unknown keys are rejected.
func ParseYAML(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Pos: Pos{File: filename}, Message: err.Error(), Err: err}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Pos: Pos{File: filename}, Message: "empty document"}
		}
		return nil, &ParseError{Pos: yamlErrorPos(filename, err), Message: err.Error(), Err: err}
	}
	doc.Source = filename
	doc.setFile(filename)
	if err := CheckShape(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// yamlErrorPos recovers the first line number yaml.v3 mentions in err.
func yamlErrorPos(filename string, err error) Pos {
	var te *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return Pos{File: filename, Line: n}
		}
	}
	return Pos{File: filename}
}

func nodePos(n *yaml.Node) Pos {
	return Pos{Line: n.Line, Column: n.Column}
}

// The UnmarshalYAML methods below decode through a method-less alias and
// then record the node position.

func (d *Definitions) UnmarshalYAML(n *yaml.Node) error {
	type plain Definitions
	if err := n.Decode((*plain)(d)); err != nil {
		return err
	}
	d.Pos = nodePos(n)
	return nil
}

func (c *Constant) UnmarshalYAML(n *yaml.Node) error {
	type plain Constant
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Pos = nodePos(n)
	return nil
}

func (e *Enum) UnmarshalYAML(n *yaml.Node) error {
	type plain Enum
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.Pos = nodePos(n)
	return nil
}

func (it *EnumItem) UnmarshalYAML(n *yaml.Node) error {
	type plain EnumItem
	if err := n.Decode((*plain)(it)); err != nil {
		return err
	}
	it.Pos = nodePos(n)
	return nil
}

func (m *Member) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: member must be a mapping", n.Line)
	}
	type plain Member
	if err := n.Decode((*plain)(m)); err != nil {
		return err
	}
	m.Pos = nodePos(n)
	return nil
}

func (s *Struct) UnmarshalYAML(n *yaml.Node) error {
	type plain Struct
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Pos = nodePos(n)
	return nil
}

func (s *ExtensibleStruct) UnmarshalYAML(n *yaml.Node) error {
	type plain ExtensibleStruct
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Pos = nodePos(n)
	return nil
}

func (o *Object) UnmarshalYAML(n *yaml.Node) error {
	type plain Object
	if err := n.Decode((*plain)(o)); err != nil {
		return err
	}
	o.Pos = nodePos(n)
	return nil
}

func (f *Function) UnmarshalYAML(n *yaml.Node) error {
	type plain Function
	if err := n.Decode((*plain)(f)); err != nil {
		return err
	}
	f.Pos = nodePos(n)
	return nil
}

func (p *Protocol) UnmarshalYAML(n *yaml.Node) error {
	type plain Protocol
	if err := n.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Pos = nodePos(n)
	return nil
}

func (c *Command) UnmarshalYAML(n *yaml.Node) error {
	type plain Command
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Pos = nodePos(n)
	return nil
}

func (g *GeneratedFile) UnmarshalYAML(n *yaml.Node) error {
	type plain GeneratedFile
	if err := n.Decode((*plain)(g)); err != nil {
		return err
	}
	g.Pos = nodePos(n)
	return nil
}

// setFile stamps filename into every recorded position.
func (d *Document) setFile(filename string) {
	set := func(p *Pos) { p.File = filename }
	for i := range d.Definitions {
		def := &d.Definitions[i]
		set(&def.Pos)
		for j := range def.Constants {
			set(&def.Constants[j].Pos)
		}
		for _, enums := range [][]Enum{def.Enums, def.Flags} {
			for j := range enums {
				set(&enums[j].Pos)
				for k := range enums[j].Items {
					set(&enums[j].Items[k].Pos)
				}
			}
		}
		for j := range def.Structs {
			set(&def.Structs[j].Pos)
			setMembers(def.Structs[j].Members, filename)
		}
		for j := range def.ExtensibleStructs {
			es := &def.ExtensibleStructs[j]
			set(&es.Pos)
			if es.SType != nil {
				set(&es.SType.Pos)
			}
			setMembers(es.Members, filename)
		}
		for j := range def.Objects {
			set(&def.Objects[j].Pos)
		}
		for j := range def.Functions {
			set(&def.Functions[j].Pos)
			setMembers(def.Functions[j].Params, filename)
		}
		for j := range def.Protocols {
			proto := &def.Protocols[j]
			set(&proto.Pos)
			for k := range proto.Commands {
				set(&proto.Commands[k].Pos)
				setMembers(proto.Commands[k].Members, filename)
			}
		}
	}
	for i := range d.GeneratedFiles {
		set(&d.GeneratedFiles[i].Pos)
	}
}

func setMembers(members []Member, filename string) {
	for i := range members {
		members[i].Pos.File = filename
	}
}
