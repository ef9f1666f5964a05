package bench

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"terry/internal/loader"
	"terry/internal/sqlchan"
)

func TestDenseProgramShape(t *testing.T) {
	p := DenseProgram()
	require.Len(t, p.Rules, 2)
	require.True(t, p.HeadSymbols()["T"])
}

func TestRDFSProgramShape(t *testing.T) {
	p := RDFSProgram()
	require.Len(t, p.Rules, 7)
	require.True(t, p.HeadSymbols()["T"])
}

func TestRunDenseProgramToFixedPoint(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bench.db")

	load := func(ch *sqlchan.Channel) error {
		return loader.InsertPairs(ch, "E", [][2]int{{1, 2}, {2, 3}, {3, 4}})
	}

	results, err := Run(sqlchan.DialectSQLiteModernc, dbPath, DenseProgram(), load, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		require.NotEmpty(t, r.Trace)
		require.GreaterOrEqual(t, r.PollMS, int64(0))
	}
	require.Equal(t, 1, results[0].TestRun)
	require.Equal(t, 2, results[1].TestRun)
}

func TestDumpJSONWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	results := []Result{{TestRun: 1, PollMS: 5}}
	require.NoError(t, DumpJSON(results, path))

	require.FileExists(t, path)
}
