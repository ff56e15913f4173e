package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/schema"
)

func TestLoadSchema(t *testing.T) {
	loaded, err := LoadSchema(schemaPath("magma.xml"))
	require.NoError(t, err)
	assert.Equal(t, "magma", loaded.Catalog.Name)
	assert.Equal(t, "magma", loaded.Document.Name)
	_, ok := loaded.Symbols.Lookup(compiler.NSProtocol, "magma")
	assert.True(t, ok)
}

func TestLoadSchemaErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: [unterminated\n"), 0o644))
	unsupported := filepath.Join(dir, "api.toml")
	require.NoError(t, os.WriteFile(unsupported, []byte(""), 0o644))

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing", filepath.Join(dir, "absent.xml"), ErrCodeNotFound},
		{"directory", dir, ErrCodeNotFound},
		{"unsupported", unsupported, ErrCodeUnsupported},
		{"malformed", broken, ErrCodeParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSchema(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}
}

func TestLoadSchemaKeepsUnderlyingError(t *testing.T) {
	_, err := LoadSchema(schemaPath("absent.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	path := filepath.Join(dir, "api.ini")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err = LoadSchema(path)
	var ufe *schema.UnsupportedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, ".ini", ufe.Ext)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("out_dir: gen\njobs: 3\nformat: json\nverbose: true\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{OutDir: "gen", Jobs: 3, Format: "json", Verbose: true}, cfg)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apigen.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfigRejectsNegativeJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apigen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs: -2\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Equal(t, ErrCodeConfigInvalid, ErrorCode(err))
}
