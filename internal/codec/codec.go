// Package codec is an interpreted encoder and decoder driven directly by
// layout plans. It is the executable definition of the wire format: the
// generated Go code must produce and accept exactly the bytes this package
// does. The decode command uses it to inspect captured messages.
//
// Values are dynamic. A record is a Record keyed by field name. Scalars
// decode as uint64 (unsigned and usize), int64 (signed), float64 or bool.
// Arrays and pointer fields decode as []any, except u8 and i8 pointer
// fields which decode as []byte sharing the input.
package codec

import (
	"fmt"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/layout"
	"github.com/roach88/apigen/internal/opcode"
	"github.com/roach88/apigen/wire"
)

// Record is one decoded struct, extensible struct or command body.
type Record map[string]any

// Message is a decoded protocol command.
type Message struct {
	Protocol string `json:"protocol"`
	Command  string `json:"command"`
	Opcode   uint32 `json:"opcode"`
	Size     uint32 `json:"size"`
	Fields   Record `json:"fields"`
}

// Codec encodes and decodes values of one catalog.
type Codec struct {
	cat     *ir.Catalog
	planner *layout.Planner
	tables  map[string]*opcode.Table
}

// New prepares a codec for cat, resolving every protocol's opcodes.
func New(cat *ir.Catalog) (*Codec, error) {
	tables, err := opcode.ResolveAll(cat)
	if err != nil {
		return nil, err
	}
	c := &Codec{
		cat:     cat,
		planner: layout.NewPlanner(cat),
		tables:  make(map[string]*opcode.Table, len(tables)),
	}
	for _, t := range tables {
		c.tables[t.Protocol] = t
	}
	return c, nil
}

// Table returns the opcode table of protocol.
func (c *Codec) Table(protocol string) (*opcode.Table, bool) {
	t, ok := c.tables[protocol]
	return t, ok
}

func (c *Codec) planType(name string) (*layout.Plan, error) {
	ref, ok := c.cat.LookupType(name)
	if !ok || (ref.Kind != ir.KindStruct && ref.Kind != ir.KindExtensible) {
		return nil, fmt.Errorf("codec: %q is not a struct type", name)
	}
	return c.planner.Plan(ref)
}

func (c *Codec) command(protocol, name string) (*ir.Protocol, opcode.Entry, error) {
	proto, ok := c.cat.Protocol(protocol)
	if !ok {
		return nil, opcode.Entry{}, fmt.Errorf("codec: unknown protocol %q", protocol)
	}
	for _, e := range c.tables[protocol].Entries {
		if e.Name == name {
			return proto, e, nil
		}
	}
	return nil, opcode.Entry{}, fmt.Errorf("codec: protocol %s has no command %q", protocol, name)
}

// Encode encodes v as the struct or extensible struct typeName.
func (c *Codec) Encode(typeName string, v Record) ([]byte, error) {
	plan, err := c.planType(typeName)
	if err != nil {
		return nil, err
	}
	return appendRecord(nil, plan, v)
}

// Decode decodes the struct or extensible struct typeName from the start
// of b. It returns the number of bytes consumed; trailing bytes are left
// alone.
func (c *Codec) Decode(typeName string, b []byte) (Record, int, error) {
	plan, err := c.planType(typeName)
	if err != nil {
		return nil, 0, err
	}
	return decodeRecord(plan, b)
}

// EncodeCommand frames v as the named command of protocol.
func (c *Codec) EncodeCommand(protocol, command string, v Record) ([]byte, error) {
	proto, entry, err := c.command(protocol, command)
	if err != nil {
		return nil, err
	}
	plan, err := c.planner.PlanCommand(proto, entry.Command)
	if err != nil {
		return nil, err
	}
	b := wire.AppendHeader(nil, entry.Opcode)
	b, err = appendRecord(b, plan, v)
	if err != nil {
		return nil, err
	}
	return wire.FinishMessage(b, 0)
}

// DecodeCommand reads one framed command of protocol from the start of b
// and dispatches on its opcode.
func (c *Codec) DecodeCommand(protocol string, b []byte) (*Message, error) {
	proto, ok := c.cat.Protocol(protocol)
	if !ok {
		return nil, fmt.Errorf("codec: unknown protocol %q", protocol)
	}
	h, body, err := wire.ReadHeader(b, protocol)
	if err != nil {
		return nil, err
	}
	entry, ok := c.tables[protocol].Lookup(h.Opcode)
	if !ok {
		return nil, &wire.UnknownOpcodeError{Protocol: protocol, Opcode: h.Opcode}
	}
	plan, err := c.planner.PlanCommand(proto, entry.Command)
	if err != nil {
		return nil, err
	}
	fields, _, err := decodeRecord(plan, body)
	if err != nil {
		return nil, err
	}
	return &Message{
		Protocol: protocol,
		Command:  entry.Name,
		Opcode:   h.Opcode,
		Size:     h.Size,
		Fields:   fields,
	}, nil
}
