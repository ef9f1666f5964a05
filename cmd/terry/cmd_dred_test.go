package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"terry/internal/datalog"
	"terry/internal/dred"
)

func TestRunDredWritesRewrittenProgram(t *testing.T) {
	logger = zap.NewNop()
	t.Cleanup(func() { logger = nil })

	dir := t.TempDir()
	dredIn = filepath.Join(dir, "in.json")
	dredOut = filepath.Join(dir, "out.json")

	program := datalog.NewProgram([]datalog.Rule{
		datalog.NewRule("T", []datalog.TypedValue{"?x", "?y"}, []datalog.BodyAtomSpec{
			{Symbol: "E", Values: []datalog.TypedValue{"?x", "?y"}},
			{Symbol: "F", Values: []datalog.TypedValue{"?y", "?x"}},
		}),
	})
	require.NoError(t, datalog.SaveProgramFile(program, dredIn))

	require.NoError(t, runDred(dred.MakeOverdeletionProgram))

	rewritten, err := datalog.LoadProgramFile(dredOut)
	require.NoError(t, err)
	require.Equal(t, 2, rewritten.Len())
}
