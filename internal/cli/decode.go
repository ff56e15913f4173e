package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/apigen/internal/codec"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Protocol string
	Type     string
	Input    string // file with raw message bytes, "-" for stdin
}

// DecodeResult is one decoded message or record.
type DecodeResult struct {
	Protocol string       `json:"protocol,omitempty"`
	Command  string       `json:"command,omitempty"`
	Opcode   *uint32      `json:"opcode,omitempty"`
	Size     uint32       `json:"size,omitempty"`
	Type     string       `json:"type,omitempty"`
	Consumed int          `json:"consumed"`
	Fields   codec.Record `json:"fields"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <schema> [hex...]",
		Short: "Decode a captured message",
		Long: `Decode a captured message against a schema.

The message is given as hex (whitespace is ignored) or read raw from
--input. By default it is read as one framed command of --protocol, which
may be omitted when the schema declares exactly one protocol. With --type
the bytes are read as an unframed struct or extensible struct instead.

Examples:
  apigen decode api.xml 00000000 10000000 07000000 00000000
  apigen decode api.xml --protocol magma --input capture.bin
  apigen decode api.yaml --type Polygon --format json 0300000000000000...`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Protocol, "protocol", "", "protocol the message belongs to")
	cmd.Flags().StringVar(&opts.Type, "type", "", "decode an unframed record of this type")
	cmd.Flags().StringVar(&opts.Input, "input", "", "read raw bytes from file (- for stdin)")

	return cmd
}

func runDecode(opts *DecodeOptions, path string, hexArgs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := readInput(opts.Input, hexArgs, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(err)
	}

	loaded, err := LoadSchema(path)
	if err != nil {
		return formatter.Fail(err)
	}
	c, err := codec.New(loaded.Catalog)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Decoding %d byte(s) against %s", len(data), loaded.Catalog.Name)

	var result DecodeResult
	if opts.Type != "" {
		if _, ok := loaded.Catalog.LookupType(opts.Type); !ok {
			return formatter.Fail(loadErr(ErrCodeInvalidInput, nil, "schema %s has no type %q", loaded.Catalog.Name, opts.Type))
		}
		rec, n, err := c.Decode(opts.Type, data)
		if err != nil {
			return formatter.Fail(err)
		}
		result = DecodeResult{Type: opts.Type, Consumed: n, Fields: rec}
	} else {
		protocol := opts.Protocol
		if protocol == "" {
			if len(loaded.Catalog.Protocols) != 1 {
				return formatter.Fail(loadErr(ErrCodeMissingFlag, nil,
					"--protocol is required: schema %s declares %d protocols", loaded.Catalog.Name, len(loaded.Catalog.Protocols)))
			}
			protocol = loaded.Catalog.Protocols[0].Name
		}
		if _, ok := c.Table(protocol); !ok {
			return formatter.Fail(loadErr(ErrCodeInvalidInput, nil, "schema %s has no protocol %q", loaded.Catalog.Name, protocol))
		}
		msg, err := c.DecodeCommand(protocol, data)
		if err != nil {
			return formatter.Fail(err)
		}
		op := msg.Opcode
		result = DecodeResult{
			Protocol: msg.Protocol,
			Command:  msg.Command,
			Opcode:   &op,
			Size:     msg.Size,
			Consumed: int(msg.Size),
			Fields:   msg.Fields,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Type != "" {
		fmt.Fprintf(w, "%s (%d bytes)\n", result.Type, result.Consumed)
	} else {
		fmt.Fprintf(w, "%s.%s opcode=%d size=%d\n", result.Protocol, result.Command, *result.Opcode, result.Size)
	}
	writeRecord(w, result.Fields, "  ")
	return nil
}

// readInput returns the message bytes from the input file or the hex
// arguments.
func readInput(input string, hexArgs []string, stdin io.Reader) ([]byte, error) {
	switch {
	case input != "" && len(hexArgs) > 0:
		return nil, loadErr(ErrCodeInvalidInput, nil, "give either --input or hex arguments, not both")
	case input == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, loadErr(ErrCodeReadFailed, err, "reading stdin: %v", err)
		}
		return data, nil
	case input != "":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, loadErr(ErrCodeReadFailed, err, "reading input: %v", err)
		}
		return data, nil
	case len(hexArgs) == 0:
		return nil, loadErr(ErrCodeMissingFlag, nil, "no message: give hex arguments or --input")
	}

	text := strings.Join(strings.Fields(strings.Join(hexArgs, " ")), "")
	text = strings.TrimPrefix(text, "0x")
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, loadErr(ErrCodeInvalidInput, err, "invalid hex input: %v", err)
	}
	return data, nil
}

func writeRecord(w io.Writer, rec codec.Record, indent string) {
	for _, name := range slices.Sorted(maps.Keys(rec)) {
		switch v := rec[name].(type) {
		case codec.Record:
			fmt.Fprintf(w, "%s%s:\n", indent, name)
			writeRecord(w, v, indent+"  ")
		case []any:
			fmt.Fprintf(w, "%s%s: [%d]\n", indent, name, len(v))
			for i, elem := range v {
				if r, ok := elem.(codec.Record); ok {
					fmt.Fprintf(w, "%s  [%d]:\n", indent, i)
					writeRecord(w, r, indent+"    ")
					continue
				}
				fmt.Fprintf(w, "%s  [%d]: %v\n", indent, i, elem)
			}
		case []byte:
			fmt.Fprintf(w, "%s%s: %s\n", indent, name, hex.EncodeToString(v))
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, name, v)
		}
	}
}
