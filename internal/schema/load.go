package schema

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Parser reads one document format.
type Parser func(r io.Reader, filename string) (*Document, error)

var parsers = map[string]Parser{
	".xml":  ParseXML,
	".yaml": ParseYAML,
	".yml":  ParseYAML,
	".cue":  ParseCUE,
}

// ParserFor returns the parser registered for path's extension.
func ParserFor(path string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := parsers[ext]
	if !ok {
		return nil, &UnsupportedFormatError{Path: path, Ext: ext}
	}
	return p, nil
}

// Load reads and parses the schema file at path, choosing the front-end by
// file extension.
func Load(path string) (*Document, error) {
	p, err := ParserFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p(bytes.NewReader(data), path)
}
