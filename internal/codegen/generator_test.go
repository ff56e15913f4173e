package codegen

import (
	"bytes"
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/schema"
	"github.com/roach88/apigen/internal/testutil"
)

func catalog(t *testing.T, name string) *ir.Catalog {
	t.Helper()
	doc, err := schema.Load(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	cat, err := compiler.Build(doc)
	require.NoError(t, err)
	return cat
}

func generator(t *testing.T, cat *ir.Catalog) *Generator {
	t.Helper()
	g, err := New(cat)
	require.NoError(t, err)
	return g
}

// kitchen exercises every primitive class, signed counts, borrowed i8
// payloads, recursive extensible structs and an empty command.
const kitchen = `name: kitchen
version: 3
definitions:
  - name: k
    constants:
      - {name: LIMIT, type: u64, value: 4096}
      - {name: RATIO, type: f32, value: 1.5}
      - {name: ENABLED, type: bool, value: true}
      - {name: OFFSET, type: i16, value: -7}
    enums:
      - name: Level
        type: i8
        items:
          - {name: low, value: -1}
          - {name: high, value: 1}
    structs:
      - name: Sample
        members:
          - {name: level, type: Level}
          - {name: ok, type: bool}
          - {name: gain, type: f32}
          - {name: weight, type: f64}
          - {name: tag, type: "[u16; 3]"}
    extensible_structs:
      - name: Node
        members:
          - {name: n, type: u8}
          - {name: kids, type: Node, count: n}
      - name: Bag
        members:
          - {name: len, type: i16}
          - {name: raw, type: i8, count: len}
          - {name: m, type: usize}
          - {name: levels, type: Level, count: m}
          - {name: values, type: u32, count: m}
          - {name: samples, type: Sample, count: m}
          - {name: nodes, type: Node, count: m}
    functions:
      - name: bag_apply
        return: void
        params:
          - {name: bag, type: Bag}
          - {name: type, type: ptr}
    protocols:
      - name: kit
        version: 1
        commands:
          - {name: ping}
          - name: put
            direction: event
            members:
              - {name: m, type: u16}
              - {name: bags, type: Bag, count: m}
generated_files:
  - {file_name: kitchen.go, kind: codec, package: kitchen, instantiate: [k]}
  - {file_name: kitchen_ffi.go, kind: ffi, package: kitchen, instantiate: [k]}
  - {file_name: kitchen.h, kind: header, instantiate: [k]}
`

func kitchenCatalog(t *testing.T) *ir.Catalog {
	t.Helper()
	doc, err := schema.ParseYAML(strings.NewReader(kitchen), "kitchen.yaml")
	require.NoError(t, err)
	cat, err := compiler.Build(doc)
	require.NoError(t, err)
	return cat
}

// typeCheck parses and type checks sources as one package, resolving the
// wire runtime from this repository's source.
func typeCheck(t *testing.T, sources map[string][]byte) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	std := importer.Default()

	wireDir := filepath.Join("..", "..", "wire")
	entries, err := os.ReadDir(wireDir)
	require.NoError(t, err)
	var wireFiles []*ast.File
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".go") || strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(wireDir, e.Name()), nil, 0)
		require.NoError(t, err)
		wireFiles = append(wireFiles, f)
	}
	wirePkg, err := (&types.Config{Importer: std}).Check(WireImport, fset, wireFiles, nil)
	require.NoError(t, err)

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	var files []*ast.File
	for _, name := range names {
		f, err := parser.ParseFile(fset, name, sources[name], parser.ParseComments)
		require.NoError(t, err, "%s:\n%s", name, sources[name])
		files = append(files, f)
	}

	conf := types.Config{Importer: importerFunc(func(path string) (*types.Package, error) {
		if path == WireImport {
			return wirePkg, nil
		}
		return std.Import(path)
	})}
	pkg, err := conf.Check("example.com/generated", fset, files, nil)
	require.NoError(t, err)
	return pkg
}

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

func generateAll(t *testing.T, g *Generator) map[string][]byte {
	t.Helper()
	outs, err := g.GenerateAll(context.Background(), 2)
	require.NoError(t, err)
	files := make(map[string][]byte)
	for _, o := range outs {
		files[o.Path] = o.Content
	}
	return files
}

func TestHeaderGolden(t *testing.T) {
	cat := catalog(t, "geometry.yaml")
	g := generator(t, cat)

	out, err := g.GenerateFile(&cat.Files[1])
	require.NoError(t, err)
	out = bytes.ReplaceAll(out, []byte(g.SchemaID().String()), []byte("SCHEMA-ID"))
	testutil.AssertGolden(t, "geometry.h", out)
}

func TestGeometryCodecTypeChecks(t *testing.T) {
	cat := catalog(t, "geometry.yaml")
	g := generator(t, cat)
	files := generateAll(t, g)

	ffi, err := g.GenerateFile(&ir.GeneratedFileSpec{
		FileName: "geometry_ffi.go", Kind: ir.OutputFFI, Instantiate: []int{0},
	})
	require.NoError(t, err)

	pkg := typeCheck(t, map[string][]byte{
		"geometry.go":     files["geometry.go"],
		"geometry_ffi.go": ffi,
	})
	assert.Equal(t, "geometry", pkg.Name())

	for _, name := range []string{"Point", "Quad", "Polygon", "PolygonFFI", "Winding", "ShapeFlags", "GeometryStructureType", "MaxVertices"} {
		assert.NotNil(t, pkg.Scope().Lookup(name), name)
	}

	src := string(files["geometry.go"])
	assert.True(t, strings.HasPrefix(src, "// Code generated by apigen. DO NOT EDIT.\n"))
	assert.Contains(t, src, g.SchemaID().String())
	assert.Contains(t, src, `wire.PayloadLen(b[off:], uint64(v.Count), 8, "Polygon", "points")`)
	assert.Contains(t, src, `wire.CheckCount(uint64(v.Count), len(v.Points), "Polygon", "points", "count")`)
	assert.Contains(t, src, "v.Corners[i].putWire(p[i*8:])")
	assert.Contains(t, src, "p[32] = uint8(v.Winding)")
	assert.Contains(t, src, "func (*Polygon) SType() GeometryStructureType {")

	ffiSrc := string(ffi)
	assert.Contains(t, ffiSrc, "type PointFFI = Point")
	assert.Contains(t, ffiSrc, "unsafe.SliceData(v.Points)")
	assert.Contains(t, ffiSrc, "unsafe.Slice(n.Points, n.Count)")
	assert.Contains(t, ffiSrc, "wire.NilPointerError")
}

func TestMagmaCodecTypeChecks(t *testing.T) {
	cat := catalog(t, "magma.xml")
	g := generator(t, cat)
	files := generateAll(t, g)
	require.Len(t, files, 2)

	pkg := typeCheck(t, map[string][]byte{
		"magma.go":     files["magma/magma.go"],
		"magma_ffi.go": files["magma/magma_ffi.go"],
	})
	for _, name := range []string{
		"MagmaOpcode", "MagmaCommand", "DecodeMagmaCommand",
		"MagmaCreateDevice", "MagmaCreateBuffer", "MagmaWriteBuffer", "MagmaQueryHeaps",
		"MagmaDeviceImportFunc", "MagmaHeapFFI", "MagmaProtocolVersion",
	} {
		assert.NotNil(t, pkg.Scope().Lookup(name), name)
	}

	consts := constValues(t, files["magma/magma.go"])
	assert.Equal(t, "0", consts["MagmaOpcodeCreateDevice"])
	assert.Equal(t, "1", consts["MagmaOpcodeCreateBuffer"])
	assert.Equal(t, "2", consts["MagmaOpcodeWriteBuffer"])
	assert.Equal(t, "16", consts["MagmaOpcodeQueryHeaps"])
	assert.Equal(t, "4", consts["MagmaMaxMemoryHeaps"])

	src := string(files["magma/magma.go"])
	assert.Contains(t, src, "b = wire.AppendHeader(b, 2)")
	assert.Contains(t, src, "v.Data = wire.Borrow(b[off:], n)")
	assert.Contains(t, src, "return wire.MessageSize(24)")
	assert.Contains(t, src, "return wire.FinishMessage(b, start)")
	assert.Contains(t, src, `&wire.UnknownOpcodeError{Protocol: "magma", Opcode: h.Opcode}`)
	assert.Contains(t, src, `&wire.OpcodeMismatchError{Command: "magma.write_buffer", Want: 2, Got: h.Opcode}`)

	assert.Contains(t, string(files["magma/magma_ffi.go"]),
		"type MagmaDeviceImportFunc func(deviceChannel uint32, deviceOut unsafe.Pointer) int32")
}

func TestKitchenTypeChecks(t *testing.T) {
	cat := kitchenCatalog(t)
	g := generator(t, cat)
	files := generateAll(t, g)

	pkg := typeCheck(t, map[string][]byte{
		"kitchen.go":     files["kitchen.go"],
		"kitchen_ffi.go": files["kitchen_ffi.go"],
	})
	for _, name := range []string{"Bag", "BagFFI", "Node", "NodeFFI", "Sample", "KitPing", "KitPut", "BagApplyFunc", "Limit", "Ratio", "Enabled", "Offset"} {
		assert.NotNil(t, pkg.Scope().Lookup(name), name)
	}

	src := string(files["kitchen.go"])
	assert.Contains(t, src, "v.Raw = wire.Borrow(b[off:], n)")
	assert.Contains(t, src, "v.Levels[i] = Level(b[off+i])")
	assert.Contains(t, src, "v.Nodes[i].DecodeWire(b[off:])")
	assert.Contains(t, src, "wire.PutBool(p[1:], v.Ok)")
	assert.Contains(t, src, "wire.Order.PutUint16(p[16+i*2:], uint16(v.Tag[i]))")

	ffiSrc := string(files["kitchen_ffi.go"])
	assert.Contains(t, ffiSrc, "if n.Len < 0 {")
	assert.Contains(t, ffiSrc, "type BagApplyFunc func(bag BagFFI, type_ unsafe.Pointer)")

	header := string(files["kitchen.h"])
	assert.Contains(t, header, "#include <stdbool.h>")
	assert.Contains(t, header, "  const int8_t* raw;")
	assert.Contains(t, header, "  const struct Node* kids;")
	assert.Contains(t, header, "  uint16_t tag[3];")
	assert.Contains(t, header, "void bag_apply(Bag bag, void* type);")
	assert.Contains(t, header, "#define KIT_OPCODE_PUT ((uint32_t)1U)")
	assert.Contains(t, header, "#define LEVEL_LOW ((Level)-1)")
}

// TestSplitKindsMatchCodec checks that the go, encoder, decoder and
// protocol kinds together declare exactly what the codec kind declares.
func TestSplitKindsMatchCodec(t *testing.T) {
	cat := catalog(t, "magma.xml")
	g := generator(t, cat)

	codec, err := g.GenerateFile(&cat.Files[0])
	require.NoError(t, err)

	split := map[string][]byte{}
	for _, kind := range []ir.OutputKind{ir.OutputGo, ir.OutputEncoder, ir.OutputDecoder, ir.OutputProtocol} {
		spec := cat.Files[0]
		spec.Kind = kind
		spec.FileName = string(kind) + ".go"
		out, err := g.GenerateFile(&spec)
		require.NoError(t, err, kind)
		split[spec.FileName] = out
	}
	typeCheck(t, split)

	var splitDecls []string
	for _, src := range split {
		splitDecls = append(splitDecls, decls(t, src)...)
	}
	sort.Strings(splitDecls)
	assert.Equal(t, decls(t, codec), splitDecls)
}

func TestGenerationIsDeterministic(t *testing.T) {
	cat := kitchenCatalog(t)
	first := generateAll(t, generator(t, cat))
	second := generateAll(t, generator(t, cat))
	assert.Equal(t, first, second)

	// Generated Go is already gofmt'ed, so formatting again is a no-op.
	g := generator(t, cat)
	out, err := g.GenerateFile(&cat.Files[0])
	require.NoError(t, err)
	assert.Equal(t, first["kitchen.go"], out)
}

func TestGenerateAllKeepsSpecOrder(t *testing.T) {
	cat := kitchenCatalog(t)
	g := generator(t, cat)
	for _, jobs := range []int{0, 1, 3} {
		outs, err := g.GenerateAll(context.Background(), jobs)
		require.NoError(t, err)
		var paths []string
		for _, o := range outs {
			paths = append(paths, o.Path)
		}
		assert.Equal(t, []string{"kitchen.go", "kitchen_ffi.go", "kitchen.h"}, paths)
		assert.Equal(t, ir.OutputHeader, outs[2].Kind)
	}
}

func TestGenerateAllFailsAsAWhole(t *testing.T) {
	cat := kitchenCatalog(t)
	g := generator(t, cat)
	cat.Files[1].Kind = "bogus"

	outs, err := g.GenerateAll(context.Background(), 1)
	assert.ErrorContains(t, err, `unknown output kind "bogus"`)
	assert.Nil(t, outs)
}

func TestGenerateAllHonorsCancellation(t *testing.T) {
	g := generator(t, kitchenCatalog(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.GenerateAll(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsOpcodeCollision(t *testing.T) {
	five, zero := uint32(5), uint32(0)
	cat := &ir.Catalog{Name: "p", Protocols: []ir.Protocol{{
		Name: "p",
		Commands: []ir.Command{
			{Name: "A", Opcode: &five},
			{Name: "B"},
			{Name: "C", Opcode: &zero},
		},
	}}}
	_, err := New(cat)
	assert.ErrorContains(t, err, "opcode 0 is used by both B and C")
}

func TestPackageNameDefaults(t *testing.T) {
	g := &Generator{cat: &ir.Catalog{Name: "My-API"}}
	assert.Equal(t, "pkg", g.packageName(&ir.GeneratedFileSpec{Package: "pkg"}))
	assert.Equal(t, "magma", g.packageName(&ir.GeneratedFileSpec{OutPath: "out/magma"}))
	assert.Equal(t, "myapi", g.packageName(&ir.GeneratedFileSpec{}))
	g.cat.Name = "9lives"
	assert.Equal(t, "api9lives", g.packageName(&ir.GeneratedFileSpec{}))
}

// constValues maps each constant name of src to its literal.
func constValues(t *testing.T, src []byte) map[string]string {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "src.go", src, 0)
	require.NoError(t, err)
	out := map[string]string{}
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if lit, ok := vs.Values[i].(*ast.BasicLit); ok {
					out[name.Name] = lit.Value
				}
			}
		}
	}
	return out
}

// decls lists the sorted top-level declarations of src as "Recv.Name" for
// methods and "Name" otherwise.
func decls(t *testing.T, src []byte) []string {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "src.go", src, 0)
	require.NoError(t, err)
	var out []string
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil {
				typ := d.Recv.List[0].Type
				if star, ok := typ.(*ast.StarExpr); ok {
					typ = star.X
				}
				name = typ.(*ast.Ident).Name + "." + name
			}
			out = append(out, name)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					out = append(out, s.Name.Name)
				case *ast.ValueSpec:
					for _, n := range s.Names {
						out = append(out, n.Name)
					}
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func TestObjectsAndQualifiers(t *testing.T) {
	cat := buildYAML(t, `name: dev
definitions:
  - name: d
    objects:
      - {ffi: dev_handle}
    structs:
      - name: Regs
        members:
          - {name: status, type: u32, qualifier: volatile}
    extensible_structs:
      - name: Buf
        members:
          - {name: n, type: u32}
          - {name: words, type: u32, count: n, qualifier: volatile}
    functions:
      - name: dev_open
        return: dev_handle
        params:
          - {name: path, type: ptr, qualifier: const}
generated_files:
  - {file_name: dev.go, kind: codec, package: dev, instantiate: [d]}
  - {file_name: dev_ffi.go, kind: ffi, package: dev, instantiate: [d]}
  - {file_name: dev.h, kind: header, instantiate: [d]}
`)
	files := generateAll(t, generator(t, cat))
	pkg := typeCheck(t, map[string][]byte{"dev.go": files["dev.go"], "dev_ffi.go": files["dev_ffi.go"]})
	assert.NotNil(t, pkg.Scope().Lookup("DevHandle"))

	ffi := string(files["dev_ffi.go"])
	assert.Contains(t, ffi, "type DevHandle unsafe.Pointer")
	assert.Contains(t, ffi, "type DevOpenFunc func(path unsafe.Pointer) DevHandle")
	assert.Contains(t, ffi, "func (v *Buf) ToNative(p *runtime.Pinner) BufFFI {")
	assert.Contains(t, ffi, "p.Pin(n.Words)")

	header := string(files["dev.h"])
	assert.Contains(t, header, "typedef void* dev_handle;")
	assert.Contains(t, header, "  volatile uint32_t status;")
	assert.Contains(t, header, "  const volatile uint32_t* words;")
	assert.Contains(t, header, "dev_handle dev_open(const void* path);")
}

func TestDecodersRejectNegativeCounts(t *testing.T) {
	files := generateAll(t, generator(t, kitchenCatalog(t)))
	src := string(files["kitchen.go"])
	assert.Contains(t, src, "if v.Len < 0 {\n\t\treturn 0, wire.NegativeCount(int64(v.Len), \"Bag\", \"len\")\n\t}")

	ffiSrc := string(files["kitchen_ffi.go"])
	assert.Contains(t, ffiSrc, `return wire.NegativeCount(int64(n.Len), "Bag", "len")`)
	// m is a usize count, so the slice length is bounded before unsafe.Slice.
	assert.Contains(t, ffiSrc, "if uint64(n.M) > math.MaxInt/uint64(unsafe.Sizeof(*n.Levels)) {")
}
