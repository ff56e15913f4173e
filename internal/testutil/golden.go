// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is the repository's golden file directory.
var GoldenDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata", "golden")
}()

// AssertGolden compares got against testdata/golden/<name>.golden.
//
// To regenerate golden files, run the test with -update:
//
//	go test ./internal/codegen -update
func AssertGolden(t *testing.T, name string, got []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}
