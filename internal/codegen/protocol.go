package codegen

import (
	"github.com/roach88/apigen/internal/ir"
)

// protocols emits, per protocol, the opcode enum, the command interface and
// the dispatch decoder.
func (f *file) protocols() {
	f.each(ir.ItemProtocol, f.protocol)
}

func (f *file) protocol(pi int) {
	proto := &f.g.cat.Protocols[pi]
	table := f.g.tables[pi]
	records := f.g.commandRecords(pi)
	opType := opcodeType(proto.Name)
	iface := goName(proto.Name) + "Command"

	f.use("fmt")
	f.use(WireImport)

	if proto.Version != "" {
		f.p("// %sProtocolVersion is the declared version of the %s protocol.", goName(proto.Name), proto.Name)
		f.p("const %sProtocolVersion = %q", goName(proto.Name), proto.Version)
		f.p("")
	}

	f.p("// %s identifies a %s command on the wire.", opType, proto.Name)
	f.p("type %s uint32", opType)
	f.p("")
	f.p("const (")
	for _, e := range table.Entries {
		f.p("%s %s = %d // %s", opcodeConst(proto.Name, e.Name), opType, e.Opcode, e.Direction)
	}
	f.p(")")
	f.p("")

	f.p("func (op %s) String() string {", opType)
	f.p("switch op {")
	for _, e := range table.Entries {
		f.p("case %s:", opcodeConst(proto.Name, e.Name))
		f.p("return %q", e.Name)
	}
	f.p("}")
	f.p(`return fmt.Sprintf("%s(%%d)", uint32(op))`, opType)
	f.p("}")
	f.p("")

	f.p("// %s is implemented by every %s command.", iface, proto.Name)
	f.p("type %s interface {", iface)
	f.p("Opcode() %s", opType)
	f.p("WireSize() int")
	f.p("AppendWire(b []byte) ([]byte, error)")
	f.p("DecodeWire(b []byte) (int, error)")
	f.p("}")
	f.p("")

	for _, r := range records {
		f.p("// Opcode returns %s.", opcodeConst(proto.Name, r.cmd.Name))
		f.p("func (*%s) Opcode() %s {", r.goName, opType)
		f.p("return %s", opcodeConst(proto.Name, r.cmd.Name))
		f.p("}")
		f.p("")
	}

	f.p("// Decode%s decodes the %s message at the start of b and returns it", iface, proto.Name)
	f.p("// with the bytes consumed. Opcodes outside the protocol fail with")
	f.p("// *wire.UnknownOpcodeError.")
	f.p("func Decode%s(b []byte) (%s, int, error) {", iface, iface)
	f.p("h, _, err := wire.ReadHeader(b, %q)", proto.Name)
	f.p("if err != nil {")
	f.p("return nil, 0, err")
	f.p("}")
	f.p("var cmd %s", iface)
	f.p("switch %s(h.Opcode) {", opType)
	for _, r := range records {
		f.p("case %s:", opcodeConst(proto.Name, r.cmd.Name))
		f.p("cmd = new(%s)", r.goName)
	}
	f.p("default:")
	f.p("return nil, 0, &wire.UnknownOpcodeError{Protocol: %q, Opcode: h.Opcode}", proto.Name)
	f.p("}")
	f.p("n, err := cmd.DecodeWire(b)")
	f.p("if err != nil {")
	f.p("return nil, 0, err")
	f.p("}")
	f.p("return cmd, n, nil")
	f.p("}")
	f.p("")
}
