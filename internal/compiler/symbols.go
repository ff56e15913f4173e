package compiler

import "github.com/roach88/apigen/internal/ir"

// Namespace partitions the symbol table. Names must be unique within one
// namespace; the same name may appear in different namespaces.
type Namespace uint8

const (
	// NSType holds enums, flags, stypes enums, plain and extensible structs.
	NSType Namespace = iota
	NSConstant
	NSFunction
	NSProtocol
	NSDefinitions
	numNamespaces
)

func (n Namespace) String() string {
	return [...]string{"type", "constant", "function", "protocol", "definitions"}[n]
}

// Symbol is one registered declaration.
type Symbol struct {
	// Kind is the human-facing declaration kind ("struct", "enum", ...).
	Kind string
	// Ref is set for NSType symbols.
	Ref   ir.TypeRef
	Index int
	Pos   ir.Pos
}

// SymbolTable is the single name registry shared by every resolution step.
// It is built during registration and only read afterwards.
type SymbolTable struct {
	spaces [numNamespaces]map[string]Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	for i := range t.spaces {
		t.spaces[i] = make(map[string]Symbol)
	}
	return t
}

// Define registers name in ns. It fails with DuplicateNameError when the
// name is already taken in that namespace.
func (t *SymbolTable) Define(ns Namespace, name string, sym Symbol) error {
	if prev, ok := t.spaces[ns][name]; ok {
		return &DuplicateNameError{Kind: sym.Kind, Name: name, Pos: sym.Pos, Previous: prev.Pos}
	}
	t.spaces[ns][name] = sym
	return nil
}

// Lookup finds name in ns.
func (t *SymbolTable) Lookup(ns Namespace, name string) (Symbol, bool) {
	sym, ok := t.spaces[ns][name]
	return sym, ok
}

// LookupType resolves a type name, primitives first.
func (t *SymbolTable) LookupType(name string) (ir.TypeRef, bool) {
	if p, ok := ir.LookupPrimitive(name); ok {
		return ir.PrimitiveRef(p), true
	}
	sym, ok := t.spaces[NSType][name]
	return sym.Ref, ok
}

// Len returns the number of symbols registered in ns.
func (t *SymbolTable) Len(ns Namespace) int {
	return len(t.spaces[ns])
}
