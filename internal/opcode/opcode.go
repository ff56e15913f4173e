// Package opcode assigns and validates protocol command opcodes and builds
// the per-protocol dispatch table.
package opcode

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/apigen/internal/ir"
)

// ErrCodeDuplicateOpcode matches compiler.ErrCodeDuplicateOpcode.
const ErrCodeDuplicateOpcode = "E105"

// DuplicateOpcodeError reports two commands of one protocol resolving to
// the same opcode. First is the earlier command in declaration order.
type DuplicateOpcodeError struct {
	Protocol string
	Opcode   uint32
	First    string
	Second   string
	Pos      ir.Pos
}

func (e *DuplicateOpcodeError) Error() string {
	msg := fmt.Sprintf("%s: protocol %s: opcode %d is used by both %s and %s",
		ErrCodeDuplicateOpcode, e.Protocol, e.Opcode, e.First, e.Second)
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + msg
	}
	return msg
}

// Code returns ErrCodeDuplicateOpcode.
func (e *DuplicateOpcodeError) Code() string { return ErrCodeDuplicateOpcode }

// Entry is one resolved command.
type Entry struct {
	Opcode uint32
	// Command indexes the protocol's Commands.
	Command   int
	Name      string
	Direction ir.Direction
	// Auto is set when the opcode was assigned rather than declared.
	Auto bool
}

// Table maps opcodes to commands for one protocol.
type Table struct {
	Protocol string
	// Entries are in command declaration order.
	Entries  []Entry
	byOpcode map[uint32]int
}

// Lookup returns the entry carrying op.
func (t *Table) Lookup(op uint32) (Entry, bool) {
	i, ok := t.byOpcode[op]
	if !ok {
		return Entry{}, false
	}
	return t.Entries[i], true
}

// Opcode returns the opcode of command index cmd.
func (t *Table) Opcode(cmd int) uint32 {
	return t.Entries[cmd].Opcode
}

// Sorted returns the entries ordered by opcode.
func (t *Table) Sorted() []Entry {
	out := slices.Clone(t.Entries)
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Opcode < b.Opcode:
			return -1
		case a.Opcode > b.Opcode:
			return 1
		}
		return 0
	})
	return out
}

// Resolve assigns opcodes in one pass over the commands in declaration
// order. Declared opcodes are taken as is. A command without one gets the
// smallest opcode not used by any earlier command. Any collision, between
// declared or assigned opcodes, fails with DuplicateOpcodeError.
func Resolve(p *ir.Protocol) (*Table, error) {
	t := &Table{
		Protocol: p.Name,
		Entries:  make([]Entry, 0, len(p.Commands)),
		byOpcode: make(map[uint32]int, len(p.Commands)),
	}
	var next uint64
	for i, cmd := range p.Commands {
		e := Entry{Command: i, Name: cmd.Name, Direction: cmd.Direction}
		if cmd.Opcode != nil {
			e.Opcode = *cmd.Opcode
		} else {
			for {
				if next > math.MaxUint32 {
					return nil, fmt.Errorf("%s: protocol %s: no opcode left for %s", ErrCodeDuplicateOpcode, p.Name, cmd.Name)
				}
				if _, used := t.byOpcode[uint32(next)]; !used {
					break
				}
				next++
			}
			e.Opcode = uint32(next)
			e.Auto = true
		}

		if prev, dup := t.byOpcode[e.Opcode]; dup {
			return nil, &DuplicateOpcodeError{
				Protocol: p.Name,
				Opcode:   e.Opcode,
				First:    t.Entries[prev].Name,
				Second:   cmd.Name,
				Pos:      cmd.Pos,
			}
		}
		t.byOpcode[e.Opcode] = len(t.Entries)
		t.Entries = append(t.Entries, e)
	}
	return t, nil
}

// ResolveAll resolves every protocol of cat in catalog order.
func ResolveAll(cat *ir.Catalog) ([]*Table, error) {
	tables := make([]*Table, 0, len(cat.Protocols))
	for i := range cat.Protocols {
		t, err := Resolve(&cat.Protocols[i])
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
