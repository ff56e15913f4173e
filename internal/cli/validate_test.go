package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateValidSchema(t *testing.T) {
	out, _, err := execute(t, "validate", schemaPath("magma.xml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema magma valid")
	assert.Contains(t, out, "1 protocol(s), 2 file(s)")
}

func TestValidateValidSchemaJSON(t *testing.T) {
	out, _, err := execute(t, "validate", schemaPath("magma.xml"), "--format", "json")
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, "magma", result.Schema)
	assert.Equal(t, 4, result.Counts["commands"])
	assert.Equal(t, 1, result.Counts["constants"])
	assert.Equal(t, 1, result.Counts["functions"])
}

func TestValidateDuplicateOpcode(t *testing.T) {
	path := writeSchema(t, "dup.yaml", `name: dup
definitions:
  - name: p
    protocols:
      - name: p
        commands:
          - {name: a, opcode: 5}
          - {name: b}
          - {name: c, opcode: 0}
`)

	out, _, err := execute(t, "validate", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E105", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "opcode 0 is used by both b and c")
}

func TestValidateGoNameCollision(t *testing.T) {
	path := writeSchema(t, "ctl.yaml", `name: ctl
definitions:
  - name: d
    structs:
      - name: CtlA
        members: [{name: x, type: u32}]
    protocols:
      - name: ctl
        commands: [{name: a}]
generated_files:
  - {file_name: ctl.go, kind: codec, instantiate: [d]}
`)

	out, _, err := execute(t, "validate", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E111", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "struct CtlA in ctl.go and command ctl.a in ctl.go both generate Go name CtlA")
}

func TestValidateVerboseListsOpcodesInOrder(t *testing.T) {
	_, errOut, err := execute(t, "validate", schemaPath("magma.xml"), "-v")
	require.NoError(t, err)

	lines := []string{
		"Opcode 0: magma.create_device",
		"Opcode 1: magma.create_buffer",
		"Opcode 2: magma.write_buffer",
		"Opcode 16: magma.query_heaps",
	}
	last := -1
	for _, l := range lines {
		at := strings.Index(errOut, l)
		require.GreaterOrEqual(t, at, 0, "missing %q in %s", l, errOut)
		assert.Greater(t, at, last, "%q out of order", l)
		last = at
	}
}

func TestValidateMalformedDocument(t *testing.T) {
	path := writeSchema(t, "broken.xml", "<api name=\"x\"><define>")

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

func TestValidateMissingFile(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.xml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateRequiresArgument(t *testing.T) {
	_, _, err := execute(t, "validate")
	require.Error(t, err)
}
