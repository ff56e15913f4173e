package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	Schema      string          `json:"schema"`
	Fingerprint string          `json:"fingerprint"`
	IR          json.RawMessage `json:"ir"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	EnumCount       int
	StructCount     int
	ExtensibleCount int
	FunctionCount   int
	ProtocolCount   int
	CommandCount    int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema>",
		Short: "Compile a schema to canonical IR",
		Long: `Compile an API schema to its canonical IR.

The canonical IR is deterministic JSON with sorted keys and no source
positions. Two schemas that compile to the same IR generate the same code.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadSchema(path)
	if err != nil {
		return formatter.Fail(err)
	}
	cat := loaded.Catalog
	formatter.VerboseLog("Compiled schema %s from %s", cat.Name, path)

	data, err := ir.MarshalCanonical(cat.Canonical())
	if err != nil {
		return formatter.Fail(err)
	}
	fingerprint, err := ir.Fingerprint(cat)
	if err != nil {
		return formatter.Fail(err)
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return formatter.Fail(loadErr(ErrCodeWriteFailed, err, "writing output file: %v", err))
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(CompilationResult{
			Schema:      cat.Name,
			Fingerprint: fingerprint,
			IR:          data,
		})
	}

	// Without an output file the IR itself is the result.
	if opts.Output == "" {
		fmt.Fprintln(formatter.Writer, string(data))
		return nil
	}

	stats := calculateStats(cat)
	fmt.Fprintf(formatter.Writer, "✓ Compiled %s: %d enum(s), %d struct(s), %d extensible struct(s), %d function(s), %d protocol(s) with %d command(s)\n",
		cat.Name, stats.EnumCount, stats.StructCount, stats.ExtensibleCount,
		stats.FunctionCount, stats.ProtocolCount, stats.CommandCount)
	fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", opts.Output)
	return nil
}

// calculateStats computes summary statistics for a catalog.
func calculateStats(cat *ir.Catalog) CompilationStats {
	stats := CompilationStats{
		EnumCount:       len(cat.Enums),
		StructCount:     len(cat.Structs),
		ExtensibleCount: len(cat.Extensibles),
		FunctionCount:   len(cat.Functions),
		ProtocolCount:   len(cat.Protocols),
	}
	for _, p := range cat.Protocols {
		stats.CommandCount += len(p.Commands)
	}
	return stats
}
