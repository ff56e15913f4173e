package cli

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/apigen/internal/codegen"
	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/emitter"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional YAML config file

	// Generation flags, used by the root command itself.
	Filename string
	OutDir   string
	Jobs     int
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the apigen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "apigen",
		Short: "apigen - zero-copy API code generator",
		Long: `Compile an API schema and generate zero-copy codecs, FFI bridges and C headers.

Given --filename, every generated file the schema declares is written below
--out-dir. The subcommands inspect a schema without writing anything.

Examples:
  apigen --filename api.xml --out-dir gen
  apigen validate api.yaml
  apigen decode api.xml --protocol magma 0000000010000000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return prepare(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "YAML config file with default settings")

	cmd.Flags().StringVar(&opts.Filename, "filename", "", "schema file (.xml, .yaml, .yml or .cue)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", ".", "output directory, created if absent")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 0, "files generated in parallel (0 = unlimited)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewLayoutCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))

	return cmd
}

// prepare applies the config file, checks global flags and installs the
// package loggers.
func prepare(cmd *cobra.Command, opts *RootOptions) error {
	if opts.Config != "" {
		cfg, err := LoadConfig(opts.Config)
		if err != nil {
			return newFormatter(opts, cmd).Fail(err)
		}
		cfg.apply(cmd, opts)
		newFormatter(opts, cmd).VerboseLog("Loaded config %s: %s", opts.Config, cfg)
	}
	if !isValidFormat(opts.Format) {
		bad := opts.Format
		opts.Format = "text"
		return newFormatter(opts, cmd).Fail(loadErr(ErrCodeInvalidInput, nil,
			"invalid format %q: must be one of %v", bad, ValidFormats))
	}
	if opts.Jobs < 0 {
		return newFormatter(opts, cmd).Fail(loadErr(ErrCodeInvalidInput, nil, "--jobs must not be negative"))
	}
	installLoggers(opts.Verbose, cmd.ErrOrStderr())
	return nil
}

// installLoggers points the compiler, generator and emitter at a
// development logger on w when verbose is set, and silences them otherwise.
func installLoggers(verbose bool, w io.Writer) {
	l := zap.NewNop()
	if verbose {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(w),
			zap.DebugLevel,
		)
		l = zap.New(core, zap.Development())
	}
	compiler.SetLogger(l)
	codegen.SetLogger(l)
	emitter.SetLogger(l)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
