package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/layout"
)

// LayoutOptions holds flags for the layout command.
type LayoutOptions struct {
	*RootOptions
	Type string // optional - restrict output to one record
}

// PlanView is a layout plan as printed by the layout command.
type PlanView struct {
	Kind string `json:"kind"`
	*layout.Plan
	// MessageSize is the framed size of a command with empty payloads.
	MessageSize int `json:"message_size,omitempty"`
}

// LayoutResult holds every plan of a schema.
type LayoutResult struct {
	Schema string     `json:"schema"`
	Plans  []PlanView `json:"plans"`
}

// NewLayoutCommand creates the layout command.
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LayoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "layout <schema>",
		Short: "Show wire layouts",
		Long: `Show the wire layout of every struct, extensible struct and command.

For each record the output lists its prefix size and alignment, each fixed
field with its offset and size, and each pointer field's payload section
with the field holding its element count. Command offsets are relative to
the body, which follows the 8-byte message header.

Examples:
  apigen layout api.xml
  apigen layout api.xml --type Polygon
  apigen layout api.xml --type magma.write_buffer
  apigen layout api.xml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "only show the named record")

	return cmd
}

func runLayout(opts *LayoutOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := LoadSchema(path)
	if err != nil {
		return formatter.Fail(err)
	}
	plans, err := layout.NewPlanner(loaded.Catalog).PlanAll()
	if err != nil {
		return formatter.Fail(err)
	}

	result := LayoutResult{Schema: loaded.Catalog.Name, Plans: []PlanView{}}
	for _, p := range plans {
		if opts.Type != "" && p.Name != opts.Type {
			continue
		}
		v := PlanView{Kind: p.KindName(), Plan: p}
		if p.Command {
			v.MessageSize = layout.MessageSize(p.Size)
		}
		result.Plans = append(result.Plans, v)
	}
	if opts.Type != "" && len(result.Plans) == 0 {
		return formatter.Fail(loadErr(ErrCodeInvalidInput, nil, "schema %s has no record named %q", result.Schema, opts.Type))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for i, v := range result.Plans {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		writePlan(formatter, v)
	}
	return nil
}

func writePlan(formatter *OutputFormatter, v PlanView) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s %s: size %d, align %d", v.Kind, v.Name, v.Size, v.Align)
	if v.MessageSize > 0 {
		fmt.Fprintf(w, ", message %d", v.MessageSize)
	}
	fmt.Fprintln(w)

	width := 0
	for _, s := range v.Slots {
		width = max(width, len(s.Name))
	}
	for _, p := range v.Payloads {
		width = max(width, len(p.Name))
	}
	for _, s := range v.Slots {
		fmt.Fprintf(w, "  %-*s  @%-4d %d", width, s.Name, s.Offset, s.Size)
		if s.ArrayLen > 0 {
			fmt.Fprintf(w, " [%d]", s.ArrayLen)
		}
		fmt.Fprintln(w)
	}
	for _, p := range v.Payloads {
		var notes []string
		if p.Extensible {
			notes = append(notes, "extensible")
		}
		if p.Borrowed {
			notes = append(notes, "borrowed")
		}
		fmt.Fprintf(w, "  %-*s  *%s x %s (%d each)", width, p.Name, p.ElemType, p.CountName, p.ElemSize)
		if len(notes) > 0 {
			fmt.Fprintf(w, " %s", strings.Join(notes, ", "))
		}
		fmt.Fprintln(w)
	}
}
