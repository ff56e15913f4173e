package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the structured error types through errors.Is.
var (
	ErrTruncated      = errors.New("wire: truncated input")
	ErrUnknownOpcode  = errors.New("wire: unknown opcode")
	ErrOpcodeMismatch = errors.New("wire: opcode mismatch")
	ErrCountMismatch  = errors.New("wire: count mismatch")
	ErrNilPointer     = errors.New("wire: nil pointer")
	ErrMalformed      = errors.New("wire: malformed message")
)

// TruncatedInputError reports that a decoder needed more bytes than remained
// in its input. Need saturates at the maximum uint64 when the declared count
// overflows.
type TruncatedInputError struct {
	Type  string
	Field string
	Need  uint64
	Have  int
}

func (e *TruncatedInputError) Error() string {
	var b strings.Builder
	b.WriteString("wire: truncated input decoding ")
	b.WriteString(location(e.Type, e.Field))
	fmt.Fprintf(&b, ": need %d bytes, have %d", e.Need, e.Have)
	return b.String()
}

// Is reports whether target is ErrTruncated.
func (e *TruncatedInputError) Is(target error) bool {
	return target == ErrTruncated
}

// UnknownOpcodeError reports a command header whose opcode is not part of
// the protocol's dispatch table.
type UnknownOpcodeError struct {
	Protocol string
	Opcode   uint32
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("wire: unknown opcode %d for protocol %s", e.Opcode, e.Protocol)
}

// Is reports whether target is ErrUnknownOpcode.
func (e *UnknownOpcodeError) Is(target error) bool {
	return target == ErrUnknownOpcode
}

// OpcodeMismatchError reports that a specific command decoder was handed a
// message carrying another command's opcode.
type OpcodeMismatchError struct {
	Command string
	Want    uint32
	Got     uint32
}

func (e *OpcodeMismatchError) Error() string {
	return fmt.Sprintf("wire: decoding %s: header opcode %d, want %d", e.Command, e.Got, e.Want)
}

// Is reports whether target is ErrOpcodeMismatch.
func (e *OpcodeMismatchError) Is(target error) bool {
	return target == ErrOpcodeMismatch
}

// CountMismatchError reports that a pointer field's length disagrees with the
// value of the count field that describes it.
type CountMismatchError struct {
	Type       string
	Field      string
	CountField string
	Count      uint64
	Len        int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("wire: encoding %s: %s has %d elements but %s is %d",
		location(e.Type, ""), e.Field, e.Len, e.CountField, e.Count)
}

// Is reports whether target is ErrCountMismatch.
func (e *CountMismatchError) Is(target error) bool {
	return target == ErrCountMismatch
}

// NilPointerError reports a native pointer that is nil while its count is
// non-zero.
type NilPointerError struct {
	Type  string
	Field string
	Count uint64
}

func (e *NilPointerError) Error() string {
	return fmt.Sprintf("wire: %s is nil with count %d", location(e.Type, e.Field), e.Count)
}

// Is reports whether target is ErrNilPointer.
func (e *NilPointerError) Is(target error) bool {
	return target == ErrNilPointer
}

// MalformedError reports a structurally invalid message, such as a header
// whose size is smaller than the header itself.
type MalformedError struct {
	Type   string
	Detail string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("wire: malformed %s: %s", e.Type, e.Detail)
}

// Is reports whether target is ErrMalformed.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func location(typ, field string) string {
	if field == "" {
		return typ
	}
	return typ + "." + field
}
