package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/codegen"
	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Schema   string         `json:"schema"`
	SchemaID string         `json:"schema_id"`
	Counts   map[string]int `json:"counts"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate a schema without generating code",
		Long: `Validate an API schema without writing any files.

Runs the full front half of generation: parsing, name resolution, struct
well-formedness, layout planning and opcode resolution. Faster than a full
generation run for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := LoadSchema(path)
	if err != nil {
		return formatter.Fail(err)
	}
	for _, d := range loaded.Catalog.Definitions {
		formatter.VerboseLog("Checked definitions group: %s (%d item(s))", d.Name, len(d.Items))
	}

	gen, err := codegen.New(loaded.Catalog)
	if err != nil {
		return formatter.Fail(err)
	}
	for i := range loaded.Catalog.Protocols {
		table := gen.Opcodes(i)
		for _, e := range table.Sorted() {
			formatter.VerboseLog("Opcode %d: %s.%s", e.Opcode, table.Protocol, e.Name)
		}
	}

	result := ValidationResult{
		Valid:    true,
		Schema:   loaded.Catalog.Name,
		SchemaID: gen.SchemaID().String(),
		Counts:   countDeclarations(loaded.Catalog, loaded.Symbols),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema %s valid\n", result.Schema)
	fmt.Fprintf(formatter.Writer, "  %d type(s), %d constant(s), %d function(s), %d protocol(s), %d file(s)\n",
		result.Counts["types"], result.Counts["constants"], result.Counts["functions"],
		result.Counts["protocols"], result.Counts["files"])
	return nil
}

func countDeclarations(cat *ir.Catalog, syms *compiler.SymbolTable) map[string]int {
	commands := 0
	for _, p := range cat.Protocols {
		commands += len(p.Commands)
	}
	return map[string]int{
		"types":     syms.Len(compiler.NSType),
		"constants": syms.Len(compiler.NSConstant),
		"functions": syms.Len(compiler.NSFunction),
		"protocols": syms.Len(compiler.NSProtocol),
		"commands":  commands,
		"files":     len(cat.Files),
	}
}
