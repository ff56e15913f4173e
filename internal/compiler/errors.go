package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// Schema error codes (E100-E199).
const (
	ErrCodeDuplicateName       = "E101" // name collides within its namespace
	ErrCodeUnresolved          = "E102" // reference to an undeclared name
	ErrCodeInvalidPlainStruct  = "E103" // plain struct holds pointer-bearing or cyclic content
	ErrCodeInvalidPointerField = "E104" // pointer field with a bad count binding
	ErrCodeDuplicateOpcode     = "E105" // two commands share an opcode
	ErrCodeInvalidEnum         = "E106" // bad enum underlying type, empty enum, duplicate value
	ErrCodeInvalidLiteral      = "E107" // literal does not parse or does not fit its type
	ErrCodeInvalidEmbedding    = "E108" // extensible struct embedded by value
	ErrCodeInvalidType         = "E109" // ptr/void/reserved name misuse, empty struct
	ErrCodeInvalidFile         = "E110" // generated file spec is incomplete or unknown kind
	ErrCodeNameCollision       = "E111" // two declarations generate the same Go identifier
)

// Coded is implemented by every schema error.
type Coded interface {
	error
	Code() string
}

func withPos(pos ir.Pos, msg string) string {
	if pos.File != "" || pos.IsValid() {
		return pos.String() + ": " + msg
	}
	return msg
}

// DuplicateNameError reports a name declared twice within one namespace.
type DuplicateNameError struct {
	Kind     string
	Name     string
	Pos      ir.Pos
	Previous ir.Pos
}

func (e *DuplicateNameError) Error() string {
	msg := fmt.Sprintf("%s: duplicate %s name %q", ErrCodeDuplicateName, e.Kind, e.Name)
	if e.Previous.IsValid() {
		msg += fmt.Sprintf(" (previously declared at %s)", e.Previous)
	}
	return withPos(e.Pos, msg)
}

// Code returns ErrCodeDuplicateName.
func (e *DuplicateNameError) Code() string { return ErrCodeDuplicateName }

// UnresolvedReferenceError reports a name that does not resolve to any
// declaration. Context names the referring declaration.
type UnresolvedReferenceError struct {
	Name    string
	Context string
	Pos     ir.Pos
}

func (e *UnresolvedReferenceError) Error() string {
	return withPos(e.Pos, fmt.Sprintf("%s: %s refers to undeclared name %q", ErrCodeUnresolved, e.Context, e.Name))
}

// Code returns ErrCodeUnresolved.
func (e *UnresolvedReferenceError) Code() string { return ErrCodeUnresolved }

// InvalidPlainStructError reports a plain struct that is not fixed size:
// it holds a pointer field, a ptr, an extensible struct, or embeds itself
// by value through Cycle.
type InvalidPlainStructError struct {
	Struct string
	Field  string
	Reason string
	Cycle  []string
	Pos    ir.Pos
}

func (e *InvalidPlainStructError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: plain struct %s", ErrCodeInvalidPlainStruct, e.Struct)
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Cycle) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Cycle, " -> "))
	}
	return withPos(e.Pos, b.String())
}

// Code returns ErrCodeInvalidPlainStruct.
func (e *InvalidPlainStructError) Code() string { return ErrCodeInvalidPlainStruct }

// InvalidPointerFieldError reports a pointer field whose count binding is
// unusable.
type InvalidPointerFieldError struct {
	Struct     string
	Field      string
	CountField string
	Reason     string
	Pos        ir.Pos
}

func (e *InvalidPointerFieldError) Error() string {
	return withPos(e.Pos, fmt.Sprintf("%s: pointer field %s.%s (count %q): %s",
		ErrCodeInvalidPointerField, e.Struct, e.Field, e.CountField, e.Reason))
}

// Code returns ErrCodeInvalidPointerField.
func (e *InvalidPointerFieldError) Code() string { return ErrCodeInvalidPointerField }

// CompileError covers the remaining schema errors. Field is the dotted
// path of the offending declaration.
type CompileError struct {
	ErrCode string
	Field   string
	Message string
	Pos     ir.Pos
}

func (e *CompileError) Error() string {
	return withPos(e.Pos, fmt.Sprintf("%s: %s: %s", e.ErrCode, e.Field, e.Message))
}

// Code returns the error's code.
func (e *CompileError) Code() string { return e.ErrCode }
