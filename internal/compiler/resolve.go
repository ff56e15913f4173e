package compiler

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/schema"
)

// arrayType matches the bracketed array spelling "[T; N]".
var arrayType = regexp.MustCompile(`^\[\s*([A-Za-z_][A-Za-z0-9_]*)\s*;\s*([^\]\s]+)\s*\]$`)

func (b *builder) resolveReferences() error {
	for i, src := range b.structSrc {
		fields, err := b.resolveFields(src.Name, src.Members)
		if err != nil {
			return err
		}
		b.cat.Structs[i].Fields = fields
	}
	for i, src := range b.extSrc {
		fields, err := b.resolveFields(src.Name, src.Members)
		if err != nil {
			return err
		}
		b.cat.Extensibles[i].Fields = fields
	}
	for pi, srcs := range b.cmdSrc {
		proto := &b.cat.Protocols[pi]
		for ci, src := range srcs {
			fields, err := b.resolveFields(proto.Name+"."+src.Name, src.Members)
			if err != nil {
				return err
			}
			proto.Commands[ci].Fields = fields
		}
	}
	for i, src := range b.funcSrc {
		if err := b.resolveFunction(&b.cat.Functions[i], src); err != nil {
			return err
		}
	}
	return b.resolveFiles()
}

// resolveFields binds member types, array lengths and count fields. owner
// is the display name used in errors.
func (b *builder) resolveFields(owner string, members []schema.Member) ([]ir.Field, error) {
	fields := make([]ir.Field, 0, len(members))
	seen := make(map[string]ir.Pos, len(members))
	for _, m := range members {
		p := pos(m.Pos)
		if m.Name == "" {
			return nil, &CompileError{ErrCode: ErrCodeInvalidType, Field: owner, Message: "field has no name", Pos: p}
		}
		if prev, dup := seen[m.Name]; dup {
			return nil, &DuplicateNameError{Kind: "field", Name: owner + "." + m.Name, Pos: p, Previous: prev}
		}
		seen[m.Name] = p

		typeName, length := strings.TrimSpace(m.Type), ""
		if sub := arrayType.FindStringSubmatch(typeName); sub != nil {
			typeName, length = sub[1], sub[2]
		} else if strings.HasPrefix(typeName, "[") {
			return nil, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: owner + "." + m.Name, Message: "malformed array type " + typeName, Pos: p}
		}
		if lit := m.Length.String(); lit != "" {
			if length != "" {
				return nil, &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: owner + "." + m.Name, Message: "array length given both in the type and as length", Pos: p}
			}
			length = strings.TrimSpace(lit)
		}

		ref, ok := b.syms.LookupType(typeName)
		if !ok {
			return nil, &UnresolvedReferenceError{Name: typeName, Context: "field " + owner + "." + m.Name, Pos: p}
		}
		qual, err := qualifier(m.Qualifier, owner+"."+m.Name, p)
		if err != nil {
			return nil, err
		}
		f := ir.Field{
			Name:       m.Name,
			Type:       ref,
			Count:      strings.TrimSpace(m.Count),
			CountIndex: -1,
			Qualifier:  qual,
			Pos:        p,
		}
		if length != "" {
			n, constName, err := b.arrayLength(length, owner+"."+m.Name, p)
			if err != nil {
				return nil, err
			}
			f.ArrayLen, f.ArrayLenConst = n, constName
		}
		fields = append(fields, f)
	}

	for i := range fields {
		if !fields[i].IsPointer() {
			continue
		}
		for j := range fields {
			if fields[j].Name == fields[i].Count {
				fields[i].CountIndex = j
				break
			}
		}
	}
	return fields, nil
}

// qualifier normalizes a C qualifier list: words are deduplicated and
// ordered const before volatile.
func qualifier(lit, field string, p ir.Pos) (string, error) {
	var isConst, isVolatile bool
	for _, w := range strings.Fields(lit) {
		switch w {
		case "const":
			isConst = true
		case "volatile":
			isVolatile = true
		default:
			return "", &CompileError{ErrCode: ErrCodeInvalidType, Field: field, Message: "unknown qualifier " + strconv.Quote(w), Pos: p}
		}
	}
	var words []string
	if isConst {
		words = append(words, "const")
	}
	if isVolatile {
		words = append(words, "volatile")
	}
	return strings.Join(words, " "), nil
}

// arrayLength resolves an array length literal or constant name to a
// positive element count.
func (b *builder) arrayLength(lit, field string, p ir.Pos) (int, string, error) {
	bad := func(msg string) error {
		return &CompileError{ErrCode: ErrCodeInvalidLiteral, Field: field, Message: msg, Pos: p}
	}
	if c := lit[0]; c >= '0' && c <= '9' {
		n, err := ir.ParseInteger(ir.U32, lit)
		if err != nil {
			return 0, "", bad("invalid array length " + lit)
		}
		if n == 0 {
			return 0, "", bad("array length must be positive")
		}
		return int(n), "", nil
	}

	sym, ok := b.syms.Lookup(NSConstant, lit)
	if !ok {
		return 0, "", &UnresolvedReferenceError{Name: lit, Context: "array length of " + field, Pos: p}
	}
	c := b.cat.Constants[sym.Index]
	n, ok := c.Int()
	if !ok || !c.Type.Integral() {
		return 0, "", bad("array length constant " + lit + " is not an integer")
	}
	if n <= 0 || n > 1<<32-1 {
		return 0, "", bad("array length constant " + lit + " must be positive")
	}
	return int(n), lit, nil
}

func (b *builder) resolveFunction(fn *ir.FunctionSig, src *schema.Function) error {
	seen := make(map[string]ir.Pos, len(src.Params))
	for _, m := range src.Params {
		p := pos(m.Pos)
		if prev, dup := seen[m.Name]; dup {
			return &DuplicateNameError{Kind: "parameter", Name: fn.Name + "." + m.Name, Pos: p, Previous: prev}
		}
		seen[m.Name] = p
		ref, ok := b.syms.LookupType(strings.TrimSpace(m.Type))
		if !ok {
			return &UnresolvedReferenceError{Name: m.Type, Context: "parameter " + fn.Name + "." + m.Name, Pos: p}
		}
		if ref.IsPrimitive(ir.Void) {
			return &CompileError{ErrCode: ErrCodeInvalidType, Field: fn.Name + "." + m.Name, Message: "void is only valid as a return type", Pos: p}
		}
		qual, err := qualifier(m.Qualifier, fn.Name+"."+m.Name, p)
		if err != nil {
			return err
		}
		fn.Params = append(fn.Params, ir.Param{Name: m.Name, Type: ref, Qualifier: qual, Pos: p})
	}

	fn.Return = ir.PrimitiveRef(ir.Void)
	if ret := strings.TrimSpace(src.Return); ret != "" {
		ref, ok := b.syms.LookupType(ret)
		if !ok {
			return &UnresolvedReferenceError{Name: ret, Context: "return type of " + fn.Name, Pos: fn.Pos}
		}
		fn.Return = ref
	}
	return nil
}

func (b *builder) resolveFiles() error {
	outputs := make(map[string]ir.Pos, len(b.doc.GeneratedFiles))
	for _, g := range b.doc.GeneratedFiles {
		p := pos(g.Pos)
		if g.FileName == "" {
			return &CompileError{ErrCode: ErrCodeInvalidFile, Field: "generated_files", Message: "file has no name", Pos: p}
		}
		kind := ir.OutputKind(g.Kind)
		if !kind.Valid() {
			return &CompileError{ErrCode: ErrCodeInvalidFile, Field: g.FileName, Message: "unknown kind " + g.Kind, Pos: p}
		}
		out := path.Join(g.OutPath, g.FileName)
		if prev, dup := outputs[out]; dup {
			return &DuplicateNameError{Kind: "generated file", Name: out, Pos: p, Previous: prev}
		}
		outputs[out] = p

		if len(g.Instantiate) == 0 {
			return &CompileError{ErrCode: ErrCodeInvalidFile, Field: g.FileName, Message: "instantiates no definitions", Pos: p}
		}
		spec := ir.GeneratedFileSpec{
			OutPath:  g.OutPath,
			FileName: g.FileName,
			Kind:     kind,
			Package:  g.Package,
			Includes: g.Includes,
			Pos:      p,
		}
		for _, name := range g.Instantiate {
			sym, ok := b.syms.Lookup(NSDefinitions, name)
			if !ok {
				return &UnresolvedReferenceError{Name: name, Context: "generated file " + out, Pos: p}
			}
			spec.Instantiate = append(spec.Instantiate, sym.Index)
		}
		b.cat.Files = append(b.cat.Files, spec)
	}
	return nil
}
