// Package emitter writes generated files below an output directory.
//
// Writes are all or nothing as far as the filesystem allows: every file is
// first written to a temporary sibling, and only when all of them succeeded
// are they renamed into place.
package emitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/apigen/internal/codegen"
)

// PathError reports an output path that would land outside the output
// directory.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("emitter: output path %q escapes the output directory", e.Path)
}

// Emitter writes outputs below Root.
type Emitter struct {
	root string
}

// New returns an emitter for dir. The directory is made absolute and
// created if absent.
func New(dir string) (*Emitter, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("emitter: resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("emitter: creating %s: %w", abs, err)
	}
	return &Emitter{root: abs}, nil
}

// Root returns the absolute output directory.
func (e *Emitter) Root() string {
	return e.root
}

// target resolves rel below the root.
func (e *Emitter) target(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", &PathError{Path: rel}
	}
	p := filepath.Join(e.root, filepath.FromSlash(rel))
	inside, err := filepath.Rel(e.root, p)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", &PathError{Path: rel}
	}
	return p, nil
}

type staged struct {
	tmp, final string
}

// Write writes outs and returns the absolute paths written, in order. On
// failure no output is moved into place and temporary files are removed.
func (e *Emitter) Write(outs []codegen.Output) ([]string, error) {
	var done []staged
	cleanup := func() {
		for _, s := range done {
			os.Remove(s.tmp)
		}
	}

	for _, o := range outs {
		final, err := e.target(o.Path)
		if err != nil {
			cleanup()
			return nil, err
		}
		tmp, err := stage(final, o.Content)
		if err != nil {
			cleanup()
			return nil, err
		}
		done = append(done, staged{tmp: tmp, final: final})
	}

	paths := make([]string, 0, len(done))
	for i, s := range done {
		if err := os.Rename(s.tmp, s.final); err != nil {
			for _, rest := range done[i:] {
				os.Remove(rest.tmp)
			}
			return nil, fmt.Errorf("emitter: %w", err)
		}
		Logger().Debug("wrote file", zap.String("path", s.final))
		paths = append(paths, s.final)
	}
	return paths, nil
}

// stage writes content to a temporary file next to final.
func stage(final string, content []byte) (string, error) {
	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("emitter: creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(final)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("emitter: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("emitter: writing %s: %w", final, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("emitter: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("emitter: closing %s: %w", final, err)
	}
	return f.Name(), nil
}
