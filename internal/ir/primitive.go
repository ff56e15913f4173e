package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Primitive is a built-in scalar type.
type Primitive uint8

const (
	PrimInvalid Primitive = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
	Bool
	Usize
	// Ptr is an opaque native address. Only function signatures may use it.
	Ptr
	// Void is only valid as a function return type.
	Void
)

var primitiveNames = [...]string{
	PrimInvalid: "invalid",
	U8:          "u8",
	I8:          "i8",
	U16:         "u16",
	I16:         "i16",
	U32:         "u32",
	I32:         "i32",
	U64:         "u64",
	I64:         "i64",
	F32:         "f32",
	F64:         "f64",
	Bool:        "bool",
	Usize:       "usize",
	Ptr:         "ptr",
	Void:        "void",
}

// LookupPrimitive maps a schema type name to its primitive.
func LookupPrimitive(name string) (Primitive, bool) {
	for p, n := range primitiveNames {
		if p != int(PrimInvalid) && n == name {
			return Primitive(p), true
		}
	}
	return PrimInvalid, false
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("Primitive(%d)", uint8(p))
}

// Size is the encoded width in bytes. usize and ptr are always eight bytes
// on the wire regardless of the host.
func (p Primitive) Size() int {
	switch p {
	case U8, I8, Bool:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64, Usize, Ptr:
		return 8
	default:
		return 0
	}
}

// Align is the natural alignment, equal to the size for every sized primitive.
func (p Primitive) Align() int {
	if s := p.Size(); s > 0 {
		return s
	}
	return 1
}

// Integral reports whether p is an integer type usable as a count, enum
// underlying type or array length.
func (p Primitive) Integral() bool {
	switch p {
	case U8, I8, U16, I16, U32, I32, U64, I64, Usize:
		return true
	}
	return false
}

// Signed reports whether p is a signed integer.
func (p Primitive) Signed() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	}
	return false
}

// Float reports whether p is a floating point type.
func (p Primitive) Float() bool {
	return p == F32 || p == F64
}

// ParseInteger parses an integer literal (decimal, 0x, 0o or 0b) and checks
// it fits p. The result is the two's complement bit pattern truncated to 64
// bits; use SignExtend or a direct conversion to recover the value.
func ParseInteger(p Primitive, lit string) (uint64, error) {
	if !p.Integral() {
		return 0, fmt.Errorf("%s is not an integer type", p)
	}
	s := strings.ReplaceAll(strings.TrimSpace(lit), "_", "")
	if s == "" {
		return 0, fmt.Errorf("empty %s literal", p)
	}
	bits := uint(p.Size() * 8)
	if p.Signed() {
		v, err := strconv.ParseInt(s, 0, int(bits))
		if err != nil {
			return 0, fmt.Errorf("invalid %s literal %q", p, lit)
		}
		return uint64(v), nil
	}
	v, err := strconv.ParseUint(s, 0, int(bits))
	if err != nil {
		return 0, fmt.Errorf("invalid %s literal %q", p, lit)
	}
	return v, nil
}

// FormatInteger renders a bit pattern produced by ParseInteger as a decimal
// literal of type p.
func FormatInteger(p Primitive, v uint64) string {
	if p.Signed() {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatUint(v, 10)
}

// ParseScalar validates a literal of any non-integral primitive.
func ParseScalar(p Primitive, lit string) error {
	s := strings.TrimSpace(lit)
	switch {
	case p.Integral():
		_, err := ParseInteger(p, s)
		return err
	case p == Bool:
		if _, err := strconv.ParseBool(s); err != nil {
			return fmt.Errorf("invalid bool literal %q", lit)
		}
	case p == F32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil || math.IsInf(v, 0) {
			return fmt.Errorf("invalid f32 literal %q", lit)
		}
	case p == F64:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("invalid f64 literal %q", lit)
		}
	default:
		return fmt.Errorf("%s cannot hold a literal", p)
	}
	return nil
}
