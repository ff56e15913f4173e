package layout

import (
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/wire"
)

type commandKey struct {
	protocol string
	command  int
}

// Planner computes and memoizes plans over one catalog. It is not safe for
// concurrent use; generators each build their own or plan up front.
type Planner struct {
	cat      *ir.Catalog
	plans    map[ir.TypeRef]*Plan
	inflight map[ir.TypeRef]bool
	commands map[commandKey]*Plan
}

// NewPlanner returns a planner for cat.
func NewPlanner(cat *ir.Catalog) *Planner {
	return &Planner{
		cat:      cat,
		plans:    make(map[ir.TypeRef]*Plan),
		inflight: make(map[ir.TypeRef]bool),
		commands: make(map[commandKey]*Plan),
	}
}

// Plan returns the layout of the plain or extensible struct ref names.
func (p *Planner) Plan(ref ir.TypeRef) (*Plan, error) {
	if plan, ok := p.plans[ref]; ok {
		return plan, nil
	}
	switch ref.Kind {
	case ir.KindStruct:
		return p.planStruct(ref)
	case ir.KindExtensible:
		return p.planExtensible(ref)
	}
	return nil, &ElementSizeUnknownError{Type: ref.Name, Field: ""}
}

// PlanCommand returns the body layout of proto.Commands[idx].
func (p *Planner) PlanCommand(proto *ir.Protocol, idx int) (*Plan, error) {
	key := commandKey{proto.Name, idx}
	if plan, ok := p.commands[key]; ok {
		return plan, nil
	}
	cmd := proto.Commands[idx]
	plan := &Plan{Name: proto.Name + "." + cmd.Name, Kind: ir.KindExtensible, Command: true}
	p.commands[key] = plan
	if err := p.fill(plan, cmd.Fields); err != nil {
		delete(p.commands, key)
		return nil, err
	}
	return plan, nil
}

// PlanAll plans every struct, extensible struct and command of the
// catalog in catalog order.
func (p *Planner) PlanAll() ([]*Plan, error) {
	var out []*Plan
	for i, s := range p.cat.Structs {
		plan, err := p.Plan(ir.TypeRef{Kind: ir.KindStruct, Index: i, Name: s.Name})
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	for i, s := range p.cat.Extensibles {
		plan, err := p.Plan(ir.TypeRef{Kind: ir.KindExtensible, Index: i, Name: s.Name})
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	for pi := range p.cat.Protocols {
		proto := &p.cat.Protocols[pi]
		for ci := range proto.Commands {
			plan, err := p.PlanCommand(proto, ci)
			if err != nil {
				return nil, err
			}
			out = append(out, plan)
		}
	}
	return out, nil
}

func (p *Planner) planStruct(ref ir.TypeRef) (*Plan, error) {
	// By-value recursion has no finite size.
	if p.inflight[ref] {
		return nil, &ElementSizeUnknownError{Type: ref.Name, Field: ""}
	}
	p.inflight[ref] = true
	defer delete(p.inflight, ref)

	s := p.cat.Struct(ref)
	plan := &Plan{Name: s.Name, Kind: ir.KindStruct}
	if err := p.fill(plan, s.Fields); err != nil {
		return nil, err
	}
	if len(plan.Payloads) > 0 {
		return nil, &ElementSizeUnknownError{Type: s.Name, Field: plan.Payloads[0].Name}
	}
	p.plans[ref] = plan
	return plan, nil
}

func (p *Planner) planExtensible(ref ir.TypeRef) (*Plan, error) {
	s := p.cat.Extensible(ref)
	plan := &Plan{Name: s.Name, Kind: ir.KindExtensible}
	// Stored before filling: pointer fields may lead back to this struct.
	p.plans[ref] = plan
	if err := p.fill(plan, s.Fields); err != nil {
		delete(p.plans, ref)
		return nil, err
	}
	return plan, nil
}

// fill lays out fields into plan. Prefix slots are assigned first so that
// payload count slots can be resolved by field index.
func (p *Planner) fill(plan *Plan, fields []ir.Field) error {
	offset, align := 0, 1
	for i, f := range fields {
		if f.IsPointer() {
			continue
		}
		slot, err := p.slot(plan.Name, i, f)
		if err != nil {
			return err
		}
		offset = wire.Align(offset, slot.Align)
		slot.Offset = offset
		offset += slot.Size
		align = max(align, slot.Align)
		plan.Slots = append(plan.Slots, slot)
	}
	plan.Align = align
	plan.Size = wire.Align(offset, align)

	for i, f := range fields {
		if !f.IsPointer() {
			continue
		}
		pl, err := p.payload(plan, i, f)
		if err != nil {
			return err
		}
		plan.Payloads = append(plan.Payloads, pl)
	}
	return nil
}

func (p *Planner) slot(owner string, idx int, f ir.Field) (Slot, error) {
	s := Slot{Field: idx, Name: f.Name, ArrayLen: f.ArrayLen}
	switch f.Type.Kind {
	case ir.KindPrimitive, ir.KindEnum:
		prim := p.cat.Scalar(f.Type)
		if prim.Size() == 0 || prim == ir.Ptr {
			return Slot{}, &ElementSizeUnknownError{Type: owner, Field: f.Name}
		}
		s.Scalar = prim
		s.Size, s.Align = prim.Size(), prim.Align()
	case ir.KindStruct:
		elem, err := p.Plan(f.Type)
		if err != nil {
			return Slot{}, err
		}
		s.Elem = elem
		s.Size, s.Align = elem.Size, elem.Align
	default:
		return Slot{}, &ElementSizeUnknownError{Type: owner, Field: f.Name}
	}
	s.Size *= s.Count()
	return s, nil
}

func (p *Planner) payload(plan *Plan, idx int, f ir.Field) (Payload, error) {
	count := plan.Slot(f.CountIndex)
	if count == nil {
		return Payload{}, &ElementSizeUnknownError{Type: plan.Name, Field: f.Name}
	}
	pl := Payload{
		Field:     idx,
		Name:      f.Name,
		CountSlot: -1,
		CountName: f.Count,
		ElemType:  f.Type.Name,
	}
	for i := range plan.Slots {
		if plan.Slots[i].Field == f.CountIndex {
			pl.CountSlot = i
		}
	}

	switch f.Type.Kind {
	case ir.KindPrimitive, ir.KindEnum:
		prim := p.cat.Scalar(f.Type)
		if prim.Size() == 0 || prim == ir.Ptr {
			return Payload{}, &ElementSizeUnknownError{Type: plan.Name, Field: f.Name}
		}
		pl.ElemScalar = prim
		pl.ElemSize = prim.Size()
		pl.Borrowed = f.Type.Kind == ir.KindPrimitive && (prim == ir.U8 || prim == ir.I8)
	case ir.KindStruct, ir.KindExtensible:
		elem, err := p.Plan(f.Type)
		if err != nil {
			return Payload{}, err
		}
		pl.ElemPlan = elem
		pl.Extensible = f.Type.Kind == ir.KindExtensible
		// fill sizes the prefix before planning payloads, so Size is final
		// even when elem is still being filled higher up the stack.
		pl.ElemSize = elem.Size
	default:
		return Payload{}, &ElementSizeUnknownError{Type: plan.Name, Field: f.Name}
	}
	return pl, nil
}
