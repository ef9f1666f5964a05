package datalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadProgramFileRoundTrips(t *testing.T) {
	original := NewProgram([]Rule{ruleT(), ruleTRecursive()})

	dir := t.TempDir()
	path := filepath.Join(dir, "program.json")

	require.NoError(t, SaveProgramFile(original, path))

	loaded, err := LoadProgramFile(path)
	require.NoError(t, err)

	if diff := cmp.Diff(original, loaded); diff != "" {
		t.Fatalf("program mismatch after round trip (-want +got):\n%s", diff)
	}
}

func TestLoadProgramFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program.yaml")

	yamlDoc := `
rules:
  - head:
      symbol: T
      values: ["?x", "?y"]
    body:
      - symbol: E
        values: ["?x", "?y"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	program, err := LoadProgramFile(path)
	require.NoError(t, err)
	require.Len(t, program.Rules, 1)
	require.Equal(t, Symbol("T"), program.Rules[0].Head.Symbol)
}
