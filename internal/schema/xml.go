package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Element shapes decoded whole with DecodeElement. Blocks whose children
// interleave (define, protocol) are walked token by token instead so source
// order and positions survive.
type (
	xmlItem struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	}

	xmlMember struct {
		Type      string `xml:"type"`
		Qualifier string `xml:"qualifier"`
		Name      string `xml:"name"`
		Length    string `xml:"length"`
		Count     string `xml:"count"`
	}

	xmlEnum struct {
		EnumName string    `xml:"enum_name"`
		FlagName string    `xml:"flag_name"`
		Type     string    `xml:"type"`
		Items    []xmlItem `xml:"item"`
	}

	xmlConstant struct {
		Type string  `xml:"type"`
		Item xmlItem `xml:"item"`
	}

	xmlStruct struct {
		Name    string      `xml:"name"`
		Members []xmlMember `xml:"member"`
	}

	xmlExtensibleStruct struct {
		Name    string      `xml:"name"`
		SType   *xmlItem    `xml:"stype"`
		Members []xmlMember `xml:"member"`
	}

	xmlObject struct {
		FFI string `xml:"ffi"`
		Go  string `xml:"go"`
		// Rust names the handle in schemas shared with Rust tooling. It is
		// accepted and ignored.
		Rust string `xml:"rust"`
	}

	xmlFunction struct {
		Name    string      `xml:"name"`
		Return  string      `xml:"return"`
		Members []xmlMember `xml:"member"`
	}

	xmlCommand struct {
		Opcode  xmlItem     `xml:"opcode"`
		Members []xmlMember `xml:"member"`
	}

	xmlCopyright struct {
		SPDX   string `xml:"spdx"`
		Holder string `xml:"holder"`
		Year   string `xml:"year"`
	}

	xmlGeneratedFile struct {
		OutPath     string   `xml:"out_path"`
		FileName    string   `xml:"file_name"`
		FileType    string   `xml:"file_type"`
		Package     string   `xml:"package"`
		Includes    []string `xml:"include"`
		Instantiate []string `xml:"instantiate"`
	}
)

// ParseXML reads a schema in the <api> markup.
func ParseXML(r io.Reader, filename string) (*Document, error) {
	p := &xmlParser{dec: xml.NewDecoder(r), file: filename}
	doc, err := p.parse()
	if err != nil {
		return nil, err
	}
	doc.Source = filename
	if err := CheckShape(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type xmlParser struct {
	dec  *xml.Decoder
	file string
}

func (p *xmlParser) pos() Pos {
	line, col := p.dec.InputPos()
	return Pos{File: p.file, Line: line, Column: col}
}

func (p *xmlParser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.pos(), Message: fmt.Sprintf(format, args...)}
}

func (p *xmlParser) wrap(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Pos: Pos{File: p.file, Line: se.Line}, Message: se.Msg, Err: err}
	}
	return &ParseError{Pos: p.pos(), Message: err.Error(), Err: err}
}

func (p *xmlParser) parse() (*Document, error) {
	doc := &Document{}
	sawAPI := false
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.wrap(err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "api":
			sawAPI = true
			doc.Name = attr(se, "name")
		case "version":
			var v string
			if err := p.dec.DecodeElement(&v, &se); err != nil {
				return nil, p.wrap(err)
			}
			doc.Version = Literal(strings.TrimSpace(v))
		case "copyright":
			var c xmlCopyright
			if err := p.dec.DecodeElement(&c, &se); err != nil {
				return nil, p.wrap(err)
			}
			doc.Copyright = Copyright{
				SPDX:   strings.TrimSpace(c.SPDX),
				Holder: strings.TrimSpace(c.Holder),
				Year:   Literal(strings.TrimSpace(c.Year)),
			}
		case "define":
			def, err := p.parseDefine(se)
			if err != nil {
				return nil, err
			}
			doc.Definitions = append(doc.Definitions, def)
		case "generated_file":
			pos := p.pos()
			var g xmlGeneratedFile
			if err := p.dec.DecodeElement(&g, &se); err != nil {
				return nil, p.wrap(err)
			}
			doc.GeneratedFiles = append(doc.GeneratedFiles, GeneratedFile{
				OutPath:     strings.TrimSpace(g.OutPath),
				FileName:    strings.TrimSpace(g.FileName),
				Kind:        strings.TrimSpace(g.FileType),
				Package:     strings.TrimSpace(g.Package),
				Includes:    trimAll(g.Includes),
				Instantiate: trimAll(g.Instantiate),
				Pos:         pos,
			})
		default:
			if sawAPI {
				return nil, p.unexpected(se, "api")
			}
		}
	}
	if !sawAPI {
		return nil, &ParseError{Pos: Pos{File: p.file}, Message: "missing <api> root element"}
	}
	return doc, nil
}

// children calls fn for every direct child element of the element opened by
// start. fn must consume the child it is handed.
func (p *xmlParser) children(start xml.StartElement, fn func(xml.StartElement) error) error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			if err == io.EOF {
				return p.errorf("unexpected end of input inside <%s>", start.Name.Local)
			}
			return p.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return nil
			}
		}
	}
}

// unexpected rejects an element the markup does not define, so misspelled
// or unsupported blocks are not silently dropped.
func (p *xmlParser) unexpected(se xml.StartElement, parent string) error {
	return p.errorf("unexpected <%s> in <%s>", se.Name.Local, parent)
}

func (p *xmlParser) text(se xml.StartElement) (string, error) {
	var s string
	if err := p.dec.DecodeElement(&s, &se); err != nil {
		return "", p.wrap(err)
	}
	return strings.TrimSpace(s), nil
}

func (p *xmlParser) parseDefine(start xml.StartElement) (Definitions, error) {
	def := Definitions{Pos: p.pos()}
	err := p.children(start, func(se xml.StartElement) error {
		switch se.Name.Local {
		case "name":
			name, err := p.text(se)
			if err != nil {
				return err
			}
			if def.Name == "" {
				def.Name = name
			}
		case "enum":
			e, err := p.parseEnum(se)
			if err != nil {
				return err
			}
			def.Enums = append(def.Enums, e)
		case "flags":
			return p.children(se, func(fe xml.StartElement) error {
				if fe.Name.Local != "flag" {
					return p.unexpected(fe, "flags")
				}
				e, err := p.parseEnum(fe)
				if err != nil {
					return err
				}
				def.Flags = append(def.Flags, e)
				return nil
			})
		case "constants":
			return p.children(se, func(ce xml.StartElement) error {
				if ce.Name.Local != "constant" {
					return p.unexpected(ce, "constants")
				}
				pos := p.pos()
				var c xmlConstant
				if err := p.dec.DecodeElement(&c, &ce); err != nil {
					return p.wrap(err)
				}
				def.Constants = append(def.Constants, Constant{
					Name:  strings.TrimSpace(c.Item.Name),
					Type:  strings.TrimSpace(c.Type),
					Value: Literal(strings.TrimSpace(c.Item.Value)),
					Pos:   pos,
				})
				return nil
			})
		case "structs":
			return p.children(se, func(ce xml.StartElement) error {
				if ce.Name.Local != "struct" {
					return p.unexpected(ce, "structs")
				}
				pos := p.pos()
				var s xmlStruct
				if err := p.dec.DecodeElement(&s, &ce); err != nil {
					return p.wrap(err)
				}
				def.Structs = append(def.Structs, Struct{
					Name:    strings.TrimSpace(s.Name),
					Members: p.members(s.Members, pos),
					Pos:     pos,
				})
				return nil
			})
		case "extensible_structs":
			return p.children(se, func(ce xml.StartElement) error {
				switch ce.Name.Local {
				case "stypes":
					name, err := p.text(ce)
					if err != nil {
						return err
					}
					def.STypes = name
				case "extensible_struct":
					pos := p.pos()
					var s xmlExtensibleStruct
					if err := p.dec.DecodeElement(&s, &ce); err != nil {
						return p.wrap(err)
					}
					es := ExtensibleStruct{
						Name:    strings.TrimSpace(s.Name),
						Members: p.members(s.Members, pos),
						Pos:     pos,
					}
					if s.SType != nil {
						es.SType = &EnumItem{
							Name:  strings.TrimSpace(s.SType.Name),
							Value: Literal(strings.TrimSpace(s.SType.Value)),
							Pos:   pos,
						}
					}
					def.ExtensibleStructs = append(def.ExtensibleStructs, es)
				default:
					return p.unexpected(ce, "extensible_structs")
				}
				return nil
			})
		case "objects":
			return p.children(se, func(oe xml.StartElement) error {
				if oe.Name.Local != "object" {
					return p.unexpected(oe, "objects")
				}
				pos := p.pos()
				var o xmlObject
				if err := p.dec.DecodeElement(&o, &oe); err != nil {
					return p.wrap(err)
				}
				def.Objects = append(def.Objects, Object{
					FFI: strings.TrimSpace(o.FFI),
					Go:  strings.TrimSpace(o.Go),
					Pos: pos,
				})
				return nil
			})
		case "function":
			pos := p.pos()
			var f xmlFunction
			if err := p.dec.DecodeElement(&f, &se); err != nil {
				return p.wrap(err)
			}
			def.Functions = append(def.Functions, Function{
				Name:   strings.TrimSpace(f.Name),
				Return: strings.TrimSpace(f.Return),
				Params: p.members(f.Members, pos),
				Pos:    pos,
			})
		case "protocol":
			proto, err := p.parseProtocol(se)
			if err != nil {
				return err
			}
			def.Protocols = append(def.Protocols, proto)
		default:
			return p.unexpected(se, "define")
		}
		return nil
	})
	return def, err
}

func (p *xmlParser) parseEnum(se xml.StartElement) (Enum, error) {
	pos := p.pos()
	var e xmlEnum
	if err := p.dec.DecodeElement(&e, &se); err != nil {
		return Enum{}, p.wrap(err)
	}
	name := e.EnumName
	if name == "" {
		name = e.FlagName
	}
	out := Enum{Name: strings.TrimSpace(name), Type: strings.TrimSpace(e.Type), Pos: pos}
	for _, it := range e.Items {
		out.Items = append(out.Items, EnumItem{
			Name:  strings.TrimSpace(it.Name),
			Value: Literal(strings.TrimSpace(it.Value)),
			Pos:   pos,
		})
	}
	return out, nil
}

func (p *xmlParser) parseProtocol(start xml.StartElement) (Protocol, error) {
	proto := Protocol{Pos: p.pos()}
	err := p.children(start, func(se xml.StartElement) error {
		switch se.Name.Local {
		case "protocol_name":
			name, err := p.text(se)
			if err != nil {
				return err
			}
			proto.Name = name
		case "version":
			v, err := p.text(se)
			if err != nil {
				return err
			}
			proto.Version = Literal(v)
		case "request", "response", "event":
			pos := p.pos()
			var c xmlCommand
			if err := p.dec.DecodeElement(&c, &se); err != nil {
				return p.wrap(err)
			}
			if strings.TrimSpace(c.Opcode.Name) == "" {
				return &ParseError{Pos: pos, Message: fmt.Sprintf("<%s> is missing <opcode name=...>", se.Name.Local)}
			}
			proto.Commands = append(proto.Commands, Command{
				Name:      strings.TrimSpace(c.Opcode.Name),
				Direction: se.Name.Local,
				Opcode:    Literal(strings.TrimSpace(c.Opcode.Value)),
				Members:   p.members(c.Members, pos),
				Pos:       pos,
			})
		default:
			return p.unexpected(se, "protocol")
		}
		return nil
	})
	return proto, err
}

// members converts decoded members. encoding/xml does not report positions
// of nested elements, so members inherit the position of their parent.
func (p *xmlParser) members(in []xmlMember, pos Pos) []Member {
	out := make([]Member, 0, len(in))
	for _, m := range in {
		out = append(out, Member{
			Name:      strings.TrimSpace(m.Name),
			Type:      strings.TrimSpace(m.Type),
			Length:    Literal(strings.TrimSpace(m.Length)),
			Count:     strings.TrimSpace(m.Count),
			Qualifier: strings.TrimSpace(m.Qualifier),
			Pos:       pos,
		})
	}
	return out
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
