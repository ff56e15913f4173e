package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/codegen"
	"github.com/roach88/apigen/internal/emitter"
)

// GenerateResult describes one generation run.
type GenerateResult struct {
	Schema   string   `json:"schema"`
	SchemaID string   `json:"schema_id"`
	OutDir   string   `json:"out_dir"`
	Files    []string `json:"files"`
}

func runGenerate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if opts.Filename == "" {
		return formatter.Fail(loadErr(ErrCodeMissingFlag, nil, "--filename is required"))
	}

	loaded, err := LoadSchema(opts.Filename)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Compiled schema %s from %s", loaded.Catalog.Name, opts.Filename)

	gen, err := codegen.New(loaded.Catalog)
	if err != nil {
		return formatter.Fail(err)
	}
	outs, err := gen.GenerateAll(cmd.Context(), opts.Jobs)
	if err != nil {
		return formatter.Fail(err)
	}

	// Nothing touches the output directory until every file has generated.
	em, err := emitter.New(opts.OutDir)
	if err != nil {
		return formatter.Fail(loadErr(ErrCodeWriteFailed, err, "%v", err))
	}
	formatter.VerboseLog("Writing %d file(s) to %s", len(outs), em.Root())
	paths, err := em.Write(outs)
	if err != nil {
		return formatter.Fail(loadErr(ErrCodeWriteFailed, err, "%v", err))
	}

	result := GenerateResult{
		Schema:   loaded.Catalog.Name,
		SchemaID: gen.SchemaID().String(),
		OutDir:   em.Root(),
		Files:    paths,
	}
	if paths == nil {
		result.Files = []string{}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %d file(s) for %s in %s\n", len(paths), result.Schema, result.OutDir)
	for _, p := range paths {
		fmt.Fprintf(formatter.Writer, "  %s\n", p)
	}
	return nil
}
