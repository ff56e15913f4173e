package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaPath(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeResponse(t *testing.T, out string, data interface{}) CLIResponse {
	t.Helper()
	var resp CLIResponse
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "apigen", cmd.Use)
	assert.Contains(t, cmd.Long, "--out-dir")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "compile", "layout", "decode"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestGenerateFlags(t *testing.T) {
	cmd := NewRootCommand()

	require.NotNil(t, cmd.Flags().Lookup("filename"))
	outDir := cmd.Flags().Lookup("out-dir")
	require.NotNil(t, outDir)
	assert.Equal(t, ".", outDir.DefValue)
	jobs := cmd.Flags().Lookup("jobs")
	require.NotNil(t, jobs)
	assert.Equal(t, "0", jobs.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	out, _, err := execute(t, "validate", schemaPath("geometry.xml"), "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `invalid format "yaml"`)
}

func TestNegativeJobs(t *testing.T) {
	_, _, err := execute(t, "--filename", schemaPath("geometry.xml"), "--jobs", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerboseLogsToStderr(t *testing.T) {
	dir := t.TempDir()
	out, errOut, err := execute(t, "--filename", schemaPath("geometry.xml"), "--out-dir", dir, "--format", "json", "-v")
	require.NoError(t, err)

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, errOut, "Compiled schema geometry")
	assert.Contains(t, errOut, "catalog built", "compiler logs through the development logger")
}

func TestConfigSuppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "gen")
	cfg := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("out_dir: "+outDir+"\nformat: json\njobs: 2\n"), 0o644))

	out, _, err := execute(t, "--config", cfg, "--filename", schemaPath("geometry.xml"))
	require.NoError(t, err)

	var result GenerateResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, outDir, result.OutDir)
	assert.FileExists(t, filepath.Join(outDir, "geometry.go"))
}

func TestVerboseLogsEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("verbose: true\njobs: 2\n"), 0o644))

	_, errOut, err := execute(t, "validate", schemaPath("geometry.xml"), "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Loaded config "+cfg)
	assert.Contains(t, errOut, `out_dir="" jobs=2 format="" verbose=true`)
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: json\n"), 0o644))

	out, _, err := execute(t, "validate", schemaPath("geometry.xml"), "--config", cfg, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema geometry valid")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "apigen.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("outdir: gen\n"), 0o644))

	out, _, err := execute(t, "validate", schemaPath("geometry.xml"), "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
}
