package emitter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/codegen"
)

func TestNewCreatesAbsoluteRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	e, err := New(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(e.Root()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWrite(t *testing.T) {
	e, err := New(t.TempDir())
	require.NoError(t, err)

	paths, err := e.Write([]codegen.Output{
		{Path: "geometry.go", Content: []byte("package geometry\n")},
		{Path: "magma/magma.h", Content: []byte("#pragma once\n")},
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(e.Root(), "magma", "magma.h"), paths[1])

	got, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "package geometry\n", string(got))

	entries, err := os.ReadDir(e.Root())
	require.NoError(t, err)
	var names []string
	for _, en := range entries {
		names = append(names, en.Name())
	}
	assert.ElementsMatch(t, []string{"geometry.go", "magma"}, names, "no temporary files remain")
}

func TestWriteOverwrites(t *testing.T) {
	e, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = e.Write([]codegen.Output{{Path: "x.go", Content: []byte("old")}})
	require.NoError(t, err)
	_, err = e.Write([]codegen.Output{{Path: "x.go", Content: []byte("new")}})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(e.Root(), "x.go"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestWriteIsAllOrNothing(t *testing.T) {
	e, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = e.Write([]codegen.Output{
		{Path: "ok.go", Content: []byte("package ok\n")},
		{Path: "../escape.go", Content: []byte("package bad\n")},
	})
	var pe *PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "../escape.go", pe.Path)

	entries, err := os.ReadDir(e.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written when any output fails")
}

func TestTargetRejectsEscapes(t *testing.T) {
	e, err := New(t.TempDir())
	require.NoError(t, err)

	for _, bad := range []string{"", "/etc/passwd", "..", "a/../../b"} {
		_, err := e.target(bad)
		assert.Error(t, err, bad)
	}
	p, err := e.target("a/../b.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.Root(), "b.go"), p)
}
