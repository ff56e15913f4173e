package codegen

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/schema"
)

func buildYAML(t *testing.T, src string) *ir.Catalog {
	t.Helper()
	doc, err := schema.ParseYAML(strings.NewReader(src), "names.yaml")
	require.NoError(t, err)
	cat, err := compiler.Build(doc)
	require.NoError(t, err)
	return cat
}

func TestNewRejectsGoNameCollisions(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		goName string
		first  string
		second string
	}{
		{
			name: "struct and command type",
			schema: `name: ctl
definitions:
  - name: d
    structs:
      - name: CtlA
        members: [{name: x, type: u32}]
    protocols:
      - name: ctl
        commands: [{name: a}]
generated_files:
  - {file_name: ctl.go, kind: codec, instantiate: [d]}
`,
			goName: "CtlA",
			first:  "struct CtlA in ctl.go",
			second: "command ctl.a in ctl.go",
		},
		{
			name: "extensible struct and command type",
			schema: `name: magma
definitions:
  - name: d
    extensible_structs:
      - name: MagmaCreateBuffer
        members: [{name: size, type: u64}]
    protocols:
      - name: magma
        commands: [{name: create_buffer}]
generated_files:
  - {file_name: magma.go, kind: codec, instantiate: [d]}
`,
			goName: "MagmaCreateBuffer",
			first:  "extensible struct MagmaCreateBuffer in magma.go",
			second: "command magma.create_buffer in magma.go",
		},
		{
			name: "snake and camel case fields",
			schema: `name: s
definitions:
  - name: d
    structs:
      - name: S
        members:
          - {name: item_count, type: u32}
          - {name: itemCount, type: u32}
`,
			goName: "ItemCount",
			first:  "field item_count",
			second: "field itemCount",
		},
		{
			name: "field renamed away from a method",
			schema: `name: s
definitions:
  - name: d
    extensible_structs:
      - name: S
        members:
          - {name: wire_size, type: u32}
          - {name: wire_size_field, type: u32}
`,
			goName: "WireSizeField",
			first:  "field wire_size",
			second: "field wire_size_field",
		},
		{
			name: "enum value and struct",
			schema: `name: e
definitions:
  - name: d
    enums:
      - name: Level
        type: u8
        items: [{name: low, value: 0}]
    structs:
      - name: LevelLow
        members: [{name: x, type: u8}]
generated_files:
  - {file_name: e.go, kind: go, instantiate: [d]}
`,
			goName: "LevelLow",
			first:  "enum value Level.low in e.go",
			second: "struct LevelLow in e.go",
		},
		{
			name: "opcode constant and struct",
			schema: `name: p
definitions:
  - name: d
    structs:
      - name: POpcodeA
        members: [{name: x, type: u8}]
    protocols:
      - name: p
        commands: [{name: a}]
generated_files:
  - {file_name: p.go, kind: codec, instantiate: [d]}
`,
			goName: "POpcodeA",
			first:  "struct POpcodeA in p.go",
			second: "opcode of command p.a in p.go",
		},
		{
			name: "two files declaring one struct",
			schema: `name: g
definitions:
  - name: d
    structs:
      - name: Point
        members: [{name: x, type: i32}]
generated_files:
  - {file_name: a.go, kind: go, instantiate: [d]}
  - {file_name: b.go, kind: go, instantiate: [d]}
`,
			goName: "Point",
			first:  "struct Point in a.go",
			second: "struct Point in b.go",
		},
		{
			name: "function parameters",
			schema: `name: f
definitions:
  - name: d
    functions:
      - name: f
        return: void
        params:
          - {name: dev_id, type: u32}
          - {name: devId, type: u32}
`,
			goName: "devId",
			first:  "parameter dev_id",
			second: "parameter devId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(buildYAML(t, tt.schema))
			require.Error(t, err)

			var nc *NameCollisionError
			require.True(t, errors.As(err, &nc), "%v", err)
			assert.Equal(t, tt.first, nc.First)
			assert.Equal(t, tt.second, nc.Second)
			assert.Equal(t, compiler.ErrCodeNameCollision, nc.Code())
			assert.Contains(t, err.Error(), tt.goName)
		})
	}
}

func TestSeparatePackagesMayReuseNames(t *testing.T) {
	cat := buildYAML(t, `name: g
definitions:
  - name: d
    structs:
      - name: Point
        members: [{name: x, type: i32}]
generated_files:
  - {file_name: a.go, out_path: left, kind: go, instantiate: [d]}
  - {file_name: a.go, out_path: right, kind: go, instantiate: [d]}
  - {file_name: a.h, out_path: left, kind: header, instantiate: [d]}
`)
	_, err := New(cat)
	assert.NoError(t, err)
}

// The name table must list exactly what each kind declares, or collisions
// slip through to the Go compiler.
func TestDeclarationsMatchGeneratedSource(t *testing.T) {
	for _, cat := range []*ir.Catalog{kitchenCatalog(t), catalog(t, "magma.xml"), catalog(t, "geometry.yaml"), catalog(t, "relay.yaml")} {
		g := generator(t, cat)
		for i := range cat.Files {
			base := cat.Files[i]
			if base.Kind == ir.OutputHeader {
				continue
			}
			for _, kind := range []ir.OutputKind{ir.OutputGo, ir.OutputEncoder, ir.OutputDecoder, ir.OutputProtocol, ir.OutputCodec, ir.OutputFFI} {
				spec := base
				spec.Kind = kind
				src, err := g.GenerateFile(&spec)
				require.NoError(t, err)

				var want []string
				for _, d := range g.declarations(&spec) {
					want = append(want, d.name)
				}
				sort.Strings(want)
				assert.Equal(t, want, decls(t, src), "%s as %s", cat.Name, kind)
			}
		}
	}
}
