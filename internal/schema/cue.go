package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var documentSchema string

var (
	schemaOnce sync.Once
	schemaErr  error
	cueMu      sync.Mutex // cue.Context is not safe for concurrent use
	cueCtx     *cue.Context
	docDef     cue.Value
)

// loadSchema compiles the embedded #Document definition once per process.
func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		cueCtx = cuecontext.New()
		v := cueCtx.CompileString(documentSchema, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compiling document schema: %w", err)
			return
		}
		docDef = v.LookupPath(cue.ParsePath("#Document"))
		if err := docDef.Err(); err != nil {
			schemaErr = fmt.Errorf("looking up #Document: %w", err)
		}
	})
	return cueCtx, docDef, schemaErr
}

// ParseCUE reads a schema written in CUE. The document is unified with the
// embedded #Document definition, which closes it against unknown fields and
// checks value shapes, before being decoded.
func ParseCUE(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Pos: Pos{File: filename}, Message: err.Error(), Err: err}
	}
	ctx, def, err := loadSchema()
	if err != nil {
		return nil, err
	}
	cueMu.Lock()
	defer cueMu.Unlock()

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueParseError(filename, err)
	}
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueParseError(filename, err)
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, cueParseError(filename, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Pos: Pos{File: filename}, Message: err.Error(), Err: err}
	}
	doc.Source = filename
	fillCUEPositions(&doc, v)
	doc.setFile(filename)
	return &doc, nil
}

func cueParseError(filename string, err error) error {
	pos := Pos{File: filename}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		pos = fromToken(errs[0].Position(), filename)
	}
	return &ParseError{Pos: pos, Message: cueerrors.Details(err, nil), Err: err}
}

func fromToken(p token.Pos, filename string) Pos {
	if !p.IsValid() {
		return Pos{File: filename}
	}
	return Pos{File: filename, Line: p.Line(), Column: p.Column()}
}

// fillCUEPositions copies source positions from the compiled document onto
// the decoded tree.
func fillCUEPositions(doc *Document, v cue.Value) {
	at := func(sels ...cue.Selector) Pos {
		return fromToken(v.LookupPath(cue.MakePath(sels...)).Pos(), doc.Source)
	}
	defs := cue.Str("definitions")
	for i := range doc.Definitions {
		d := &doc.Definitions[i]
		di := cue.Index(i)
		d.Pos = at(defs, di)
		for j := range d.Constants {
			d.Constants[j].Pos = at(defs, di, cue.Str("constants"), cue.Index(j))
		}
		for j := range d.Enums {
			d.Enums[j].Pos = at(defs, di, cue.Str("enums"), cue.Index(j))
		}
		for j := range d.Flags {
			d.Flags[j].Pos = at(defs, di, cue.Str("flags"), cue.Index(j))
		}
		for j := range d.Structs {
			s := &d.Structs[j]
			s.Pos = at(defs, di, cue.Str("structs"), cue.Index(j))
			for k := range s.Members {
				s.Members[k].Pos = at(defs, di, cue.Str("structs"), cue.Index(j), cue.Str("members"), cue.Index(k))
			}
		}
		for j := range d.ExtensibleStructs {
			s := &d.ExtensibleStructs[j]
			s.Pos = at(defs, di, cue.Str("extensible_structs"), cue.Index(j))
			for k := range s.Members {
				s.Members[k].Pos = at(defs, di, cue.Str("extensible_structs"), cue.Index(j), cue.Str("members"), cue.Index(k))
			}
		}
		for j := range d.Objects {
			d.Objects[j].Pos = at(defs, di, cue.Str("objects"), cue.Index(j))
		}
		for j := range d.Functions {
			d.Functions[j].Pos = at(defs, di, cue.Str("functions"), cue.Index(j))
		}
		for j := range d.Protocols {
			p := &d.Protocols[j]
			p.Pos = at(defs, di, cue.Str("protocols"), cue.Index(j))
			for k := range p.Commands {
				p.Commands[k].Pos = at(defs, di, cue.Str("protocols"), cue.Index(j), cue.Str("commands"), cue.Index(k))
			}
		}
	}
	for i := range doc.GeneratedFiles {
		doc.GeneratedFiles[i].Pos = at(cue.Str("generated_files"), cue.Index(i))
	}
}

// CheckShape validates a decoded document against the #Document definition.
// The XML and YAML front-ends call it so every format is held to the same
// shape rules as CUE input.
func CheckShape(doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}
	cueMu.Lock()
	defer cueMu.Unlock()

	v := ctx.CompileBytes(data, cue.Filename(doc.Source))
	if err := v.Err(); err != nil {
		return &ParseError{Pos: Pos{File: doc.Source}, Message: err.Error(), Err: err}
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return &ParseError{Pos: Pos{File: doc.Source}, Message: cueerrors.Details(err, nil), Err: err}
	}
	return nil
}
