package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/schema"
	"github.com/roach88/apigen/wire"
)

// Error code constants for CLI and load failures. Schema errors carry their
// own E1xx codes from the compiler.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeUnsupported   = "E002" // Schema extension has no front-end
	ErrCodeReadFailed    = "E003" // Schema file could not be read
	ErrCodeParseFailed   = "E004" // Schema document is malformed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeConfigInvalid = "E006" // Config file unreadable or invalid
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeMissingFlag   = "E008" // Required flag not set
	ErrCodeDecodeFailed  = "E009" // Message bytes rejected by the codec
	ErrCodeInvalidInput  = "E010" // Command input (hex, type name) unusable
)

// LoadResult is a parsed and compiled schema.
type LoadResult struct {
	Path     string
	Document *schema.Document
	Catalog  *ir.Catalog
	Symbols  *compiler.SymbolTable
}

// LoadError represents an error that occurred while loading a schema or
// running a command against it.
type LoadError struct {
	Code    string
	Message string
	Pos     string // schema position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(code string, err error, format string, args ...interface{}) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// LoadSchema reads, parses and compiles the schema at path.
func LoadSchema(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, loadErr(ErrCodeNotFound, err, "schema file not found: %s", path)
	}
	if err != nil {
		return nil, loadErr(ErrCodeNotFound, err, "error accessing schema file: %v", err)
	}
	if info.IsDir() {
		return nil, loadErr(ErrCodeNotFound, nil, "not a file: %s", path)
	}

	parse, err := schema.ParserFor(path)
	if err != nil {
		return nil, loadErr(ErrCodeUnsupported, err, "%v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr(ErrCodeReadFailed, err, "reading schema: %v", err)
	}
	defer f.Close()

	doc, err := parse(f, path)
	if err != nil {
		le := loadErr(ErrCodeParseFailed, err, "%v", err)
		var pe *schema.ParseError
		if errors.As(err, &pe) {
			le.Message = pe.Message
			if pe.Pos.File != "" || pe.Pos.IsValid() {
				le.Pos = pe.Pos.String()
			}
		}
		return nil, le
	}

	cat, syms, err := compiler.BuildWithSymbols(doc)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Path: path, Document: doc, Catalog: cat, Symbols: syms}, nil
}

// ErrorCode returns the diagnostic code of err.
func ErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var coded compiler.Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	for _, target := range []error{wire.ErrTruncated, wire.ErrUnknownOpcode, wire.ErrOpcodeMismatch, wire.ErrMalformed} {
		if errors.Is(err, target) {
			return ErrCodeDecodeFailed
		}
	}
	return ErrCodeGeneric
}

// errorMessage is err's text without its own code prefix.
func errorMessage(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Message
	}
	return strings.Replace(err.Error(), ErrorCode(err)+": ", "", 1)
}

// exitCodeFor maps a diagnostic code to a process exit code: rejected
// schemas and messages fail, everything else is a command error.
func exitCodeFor(code string) int {
	switch {
	case strings.HasPrefix(code, "E1"), code == ErrCodeParseFailed, code == ErrCodeDecodeFailed:
		return ExitFailure
	default:
		return ExitCommandError
	}
}
