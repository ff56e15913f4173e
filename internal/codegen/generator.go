// Package codegen generates Go codecs, native bridges and C headers from a
// compiled catalog.
//
// A Generator plans every layout and resolves every opcode table up front,
// after which generating a file only reads shared state. GenerateAll relies
// on this to render files concurrently.
package codegen

import (
	"context"
	"fmt"
	"go/format"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/layout"
	"github.com/roach88/apigen/internal/opcode"
)

// WireImport is the import path of the runtime package generated code uses.
const WireImport = "github.com/roach88/apigen/wire"

// Generator renders the generated files of one catalog.
type Generator struct {
	cat      *ir.Catalog
	structs  []*layout.Plan
	exts     []*layout.Plan
	cmds     [][]*layout.Plan
	tables   []*opcode.Table
	schemaID uuid.UUID
}

// Output is one rendered file. Path is relative to the output directory.
type Output struct {
	Path    string
	Kind    ir.OutputKind
	Content []byte
}

// New plans the layouts and opcode tables of cat.
func New(cat *ir.Catalog) (*Generator, error) {
	g := &Generator{cat: cat}

	planner := layout.NewPlanner(cat)
	for i, s := range cat.Structs {
		plan, err := planner.Plan(ir.TypeRef{Kind: ir.KindStruct, Index: i, Name: s.Name})
		if err != nil {
			return nil, err
		}
		g.structs = append(g.structs, plan)
	}
	for i, s := range cat.Extensibles {
		plan, err := planner.Plan(ir.TypeRef{Kind: ir.KindExtensible, Index: i, Name: s.Name})
		if err != nil {
			return nil, err
		}
		g.exts = append(g.exts, plan)
	}
	for pi := range cat.Protocols {
		proto := &cat.Protocols[pi]
		plans := make([]*layout.Plan, len(proto.Commands))
		for ci := range proto.Commands {
			plan, err := planner.PlanCommand(proto, ci)
			if err != nil {
				return nil, err
			}
			plans[ci] = plan
		}
		g.cmds = append(g.cmds, plans)
	}

	tables, err := opcode.ResolveAll(cat)
	if err != nil {
		return nil, err
	}
	g.tables = tables

	if err := g.checkNames(); err != nil {
		return nil, err
	}

	id, err := ir.SchemaID(cat)
	if err != nil {
		return nil, err
	}
	g.schemaID = id
	return g, nil
}

// Opcodes returns the opcode table of protocol i.
func (g *Generator) Opcodes(i int) *opcode.Table {
	return g.tables[i]
}

// SchemaID returns the identifier stamped into every generated file.
func (g *Generator) SchemaID() uuid.UUID {
	return g.schemaID
}

// GenerateAll renders every file of the catalog, at most jobs at a time
// (unbounded when jobs <= 0). Results follow the catalog's file order. The
// first failure cancels the rest and no output is returned.
func (g *Generator) GenerateAll(ctx context.Context, jobs int) ([]Output, error) {
	out := make([]Output, len(g.cat.Files))

	eg, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		eg.SetLimit(jobs)
	}
	for i := range g.cat.Files {
		spec := &g.cat.Files[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := g.GenerateFile(spec)
			if err != nil {
				return err
			}
			out[i] = Output{Path: path.Join(spec.OutPath, spec.FileName), Kind: spec.Kind, Content: content}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateFile renders one file.
func (g *Generator) GenerateFile(spec *ir.GeneratedFileSpec) ([]byte, error) {
	name := path.Join(spec.OutPath, spec.FileName)
	f := &file{g: g, spec: spec, items: g.selectItems(spec), imports: map[string]bool{}}

	switch spec.Kind {
	case ir.OutputHeader:
		f.header()
		Logger().Debug("generated header", zap.String("file", name), zap.Int("bytes", f.body.Len()))
		return []byte(f.body.String()), nil
	case ir.OutputGo:
		f.types()
	case ir.OutputEncoder:
		f.encoders()
	case ir.OutputDecoder:
		f.decoders()
	case ir.OutputProtocol:
		f.protocols()
	case ir.OutputCodec:
		f.types()
		f.encoders()
		f.decoders()
		f.protocols()
	case ir.OutputFFI:
		f.bridge()
	default:
		return nil, fmt.Errorf("codegen: %s: unknown output kind %q", name, spec.Kind)
	}

	src, err := format.Source(f.goSource())
	if err != nil {
		return nil, fmt.Errorf("codegen: formatting %s: %w", name, err)
	}
	Logger().Debug("generated go file",
		zap.String("file", name),
		zap.String("kind", string(spec.Kind)),
		zap.Int("bytes", len(src)))
	return src, nil
}

// selectItems returns the declarations the instantiated groups hold, in
// group order, each at most once.
func (g *Generator) selectItems(spec *ir.GeneratedFileSpec) []ir.Item {
	seen := make(map[ir.Item]bool)
	var items []ir.Item
	for _, d := range spec.Instantiate {
		for _, it := range g.cat.Definitions[d].Items {
			if !seen[it] {
				seen[it] = true
				items = append(items, it)
			}
		}
	}
	return items
}

// packageName picks the Go package of a generated file.
func (g *Generator) packageName(spec *ir.GeneratedFileSpec) string {
	if spec.Package != "" {
		return spec.Package
	}
	base := g.cat.Name
	if p := path.Base(spec.OutPath); spec.OutPath != "" && p != "." && p != "/" {
		base = p
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "api" + name
	}
	return name
}

// file accumulates one generated file.
type file struct {
	g       *Generator
	spec    *ir.GeneratedFileSpec
	items   []ir.Item
	imports map[string]bool
	body    strings.Builder
}

func (f *file) p(format string, args ...any) {
	fmt.Fprintf(&f.body, format, args...)
	f.body.WriteByte('\n')
}

func (f *file) use(importPath string) {
	f.imports[importPath] = true
}

func (f *file) each(kind ir.ItemKind, fn func(idx int)) {
	for _, it := range f.items {
		if it.Kind == kind {
			fn(it.Index)
		}
	}
}

// stamp writes the provenance comment lines shared by every output kind.
func (f *file) stamp(w *strings.Builder) {
	cat := f.g.cat
	w.WriteString("// Code generated by apigen. DO NOT EDIT.\n")
	if cat.Copyright.SPDX != "" {
		fmt.Fprintf(w, "// SPDX-License-Identifier: %s\n", cat.Copyright.SPDX)
	}
	if cat.Copyright.Holder != "" {
		if cat.Copyright.Year != "" {
			fmt.Fprintf(w, "// Copyright %s %s\n", cat.Copyright.Year, cat.Copyright.Holder)
		} else {
			fmt.Fprintf(w, "// Copyright %s\n", cat.Copyright.Holder)
		}
	}
	fmt.Fprintf(w, "// Schema %s", cat.Name)
	if cat.Version != "" {
		fmt.Fprintf(w, " version %s", cat.Version)
	}
	fmt.Fprintf(w, " (%s)\n", f.g.schemaID)
}

func (f *file) goSource() []byte {
	var w strings.Builder
	f.stamp(&w)
	fmt.Fprintf(&w, "\npackage %s\n\n", f.g.packageName(f.spec))

	if len(f.imports) > 0 {
		var std, ext []string
		for imp := range f.imports {
			if strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") {
				ext = append(ext, imp)
			} else {
				std = append(std, imp)
			}
		}
		sort.Strings(std)
		sort.Strings(ext)
		w.WriteString("import (\n")
		for _, imp := range std {
			fmt.Fprintf(&w, "\t%q\n", imp)
		}
		if len(std) > 0 && len(ext) > 0 {
			w.WriteString("\n")
		}
		for _, imp := range ext {
			fmt.Fprintf(&w, "\t%q\n", imp)
		}
		w.WriteString(")\n\n")
	}
	w.WriteString(f.body.String())
	return []byte(w.String())
}
