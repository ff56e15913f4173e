package compiler

import "github.com/roach88/apigen/internal/ir"

func (b *builder) checkStructWellFormedness() error {
	for _, s := range b.cat.Structs {
		if err := checkPlainStruct(s); err != nil {
			return err
		}
	}
	if cycle := findEmbeddingCycle(b.cat.Structs); cycle != nil {
		first := b.cat.Structs[0]
		for _, s := range b.cat.Structs {
			if s.Name == cycle[0] {
				first = s
				break
			}
		}
		return &InvalidPlainStructError{Struct: cycle[0], Reason: "embeds itself by value", Cycle: cycle, Pos: first.Pos}
	}

	for _, s := range b.cat.Extensibles {
		if len(s.Fields) == 0 {
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: s.Name, Message: "extensible struct has no fields", Pos: s.Pos}
		}
		if err := checkRecord(s.Name, s.Fields); err != nil {
			return err
		}
	}
	for _, p := range b.cat.Protocols {
		for _, c := range p.Commands {
			if err := checkRecord(p.Name+"."+c.Name, c.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkPlainStruct verifies s holds only fixed-size, by-value content.
func checkPlainStruct(s ir.PlainStruct) error {
	if len(s.Fields) == 0 {
		return &CompileError{ErrCode: ErrCodeInvalidType, Field: s.Name, Message: "struct has no fields", Pos: s.Pos}
	}
	for _, f := range s.Fields {
		invalid := func(reason string) error {
			return &InvalidPlainStructError{Struct: s.Name, Field: f.Name, Reason: reason, Pos: f.Pos}
		}
		switch {
		case f.IsPointer():
			return invalid("pointer fields are only allowed in extensible structs")
		case f.Type.IsPrimitive(ir.Ptr):
			return invalid("ptr is only allowed in function signatures")
		case f.Type.Kind == ir.KindObject:
			return invalid("object " + f.Type.Name + " is only allowed in function signatures")
		case f.Type.Kind == ir.KindExtensible:
			return invalid("embeds extensible struct " + f.Type.Name)
		case f.Type.IsPrimitive(ir.Void):
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: s.Name + "." + f.Name, Message: "void is only valid as a return type", Pos: f.Pos}
		}
	}
	return nil
}

// checkRecord verifies the fields of an extensible struct or command.
func checkRecord(owner string, fields []ir.Field) error {
	for i, f := range fields {
		name := owner + "." + f.Name
		switch {
		case f.Type.IsPrimitive(ir.Void):
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: name, Message: "void is only valid as a return type", Pos: f.Pos}
		case f.Type.IsPrimitive(ir.Ptr):
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: name, Message: "ptr is only allowed in function signatures", Pos: f.Pos}
		case f.Type.Kind == ir.KindObject:
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: name, Message: "object " + f.Type.Name + " is only allowed in function signatures", Pos: f.Pos}
		case f.Type.Kind == ir.KindExtensible && !f.IsPointer():
			return &CompileError{ErrCode: ErrCodeInvalidEmbedding, Field: name, Message: "extensible struct " + f.Type.Name + " can only be referenced through a pointer field", Pos: f.Pos}
		}
		if !f.IsPointer() {
			continue
		}

		invalid := func(reason string) error {
			return &InvalidPointerFieldError{Struct: owner, Field: f.Name, CountField: f.Count, Reason: reason, Pos: f.Pos}
		}
		if f.IsArray() {
			return invalid("pointer fields cannot be fixed arrays")
		}
		if f.CountIndex < 0 {
			return invalid("count field does not exist")
		}
		if f.CountIndex >= i {
			return invalid("count field must precede the pointer field")
		}
		cf := fields[f.CountIndex]
		switch {
		case cf.IsPointer():
			return invalid("count field is itself a pointer field")
		case cf.IsArray():
			return invalid("count field must be a scalar")
		case cf.Type.Kind != ir.KindPrimitive || !cf.Type.Primitive().Integral():
			return invalid("count field must have an integral primitive type")
		}
	}
	return nil
}
