package schema

import "fmt"

// ParseError reports a document that could not be read into a Document tree.
type ParseError struct {
	Pos     Pos
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Pos.File != "" || e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports a schema file whose extension has no parser.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported schema format %q (want .xml, .yaml, .yml or .cue)", e.Path, e.Ext)
}
