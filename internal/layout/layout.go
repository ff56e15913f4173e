// Package layout computes wire layouts for structs, extensible structs and
// protocol commands.
//
// A plan describes the fixed prefix of a record (fields at naturally
// aligned offsets, size rounded up to the record alignment) and, for
// records with pointer fields, the payload sections that follow the prefix
// in field order. Pointer fields occupy no prefix space; their element
// count lives in the named count field.
package layout

import (
	"fmt"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/wire"
)

// ElementSizeUnknownError means the planner met a type it cannot size. The
// compiler rejects every schema that would cause it, so seeing one is a bug.
type ElementSizeUnknownError struct {
	Type  string
	Field string
}

func (e *ElementSizeUnknownError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("layout: cannot size %s", e.Type)
	}
	return fmt.Sprintf("layout: cannot size %s.%s", e.Type, e.Field)
}

// Slot is one fixed field in a record prefix.
type Slot struct {
	Field  int    `json:"field"`
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Align  int    `json:"align"`
	// Scalar is the wire primitive of primitive and enum fields,
	// PrimInvalid for struct fields.
	Scalar   ir.Primitive `json:"-"`
	ArrayLen int          `json:"array_len,omitempty"`
	// Elem is the plan of a by-value struct field.
	Elem *Plan `json:"-"`
}

// Count returns the number of elements the slot holds: ArrayLen for arrays,
// one otherwise.
func (s Slot) Count() int {
	if s.ArrayLen > 0 {
		return s.ArrayLen
	}
	return 1
}

// ElemSize is the size of one element of the slot.
func (s Slot) ElemSize() int {
	return s.Size / s.Count()
}

// Payload is the section holding one pointer field's elements.
type Payload struct {
	Field int    `json:"field"`
	Name  string `json:"name"`
	// CountSlot indexes Plan.Slots.
	CountSlot int    `json:"count_slot"`
	CountName string `json:"count"`
	ElemType  string `json:"elem_type"`
	// ElemSize is the element stride for plain and scalar elements and the
	// prefix size of one element for extensible elements.
	ElemSize   int          `json:"elem_size"`
	ElemScalar ir.Primitive `json:"-"`
	// ElemPlan is nil for scalar elements.
	ElemPlan *Plan `json:"-"`
	// Extensible elements are each followed by their own payloads.
	Extensible bool `json:"extensible,omitempty"`
	// Borrowed payloads (u8 and i8 elements) decode as sub-slices of the
	// input instead of copies.
	Borrowed bool `json:"borrowed,omitempty"`
}

// Plan is the wire layout of one record.
type Plan struct {
	Name string  `json:"name"`
	Kind ir.Kind `json:"-"`
	// Command is set for protocol command bodies. Offsets are relative to
	// the body, which starts after the message header.
	Command  bool      `json:"command,omitempty"`
	Size     int       `json:"size"`
	Align    int       `json:"align"`
	Slots    []Slot    `json:"slots"`
	Payloads []Payload `json:"payloads,omitempty"`
}

// Fixed reports whether every encoding of the record has length Size.
func (p *Plan) Fixed() bool {
	return len(p.Payloads) == 0
}

// Slot returns the slot of field index i, or nil for pointer fields.
func (p *Plan) Slot(field int) *Slot {
	for i := range p.Slots {
		if p.Slots[i].Field == field {
			return &p.Slots[i]
		}
	}
	return nil
}

// KindName is the JSON name of the plan's record kind.
func (p *Plan) KindName() string {
	if p.Command {
		return "command"
	}
	return p.Kind.String()
}

// MessageSize is the framed size of a command whose body (prefix plus
// payloads) is bodySize bytes.
func MessageSize(bodySize int) int {
	return wire.MessageSize(bodySize)
}
