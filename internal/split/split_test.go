package split

import (
	"testing"

	"github.com/stretchr/testify/require"

	"terry/internal/datalog"
)

func TestSplitPartitionsRecursiveFromNonrecursive(t *testing.T) {
	nonrecursiveRule := datalog.NewRule("dT", []datalog.TypedValue{"?x", "?y"}, []datalog.BodyAtomSpec{
		{Symbol: "E", Values: []datalog.TypedValue{"?x", "?y"}},
	})
	recursiveRule := datalog.NewRule("dT", []datalog.TypedValue{"?x", "?z"}, []datalog.BodyAtomSpec{
		{Symbol: "dT", Values: []datalog.TypedValue{"?x", "?y"}},
		{Symbol: "E", Values: []datalog.TypedValue{"?y", "?z"}},
	})
	program := datalog.NewProgram([]datalog.Rule{nonrecursiveRule, recursiveRule})

	nr, r := Split(program)

	require.Len(t, nr.Rules, 1)
	require.Len(t, r.Rules, 1)
	require.Equal(t, nonrecursiveRule.Serialize(), nr.Rules[0].Serialize())
	require.Equal(t, recursiveRule.Serialize(), r.Rules[0].Serialize())
}

func TestSplitAllNonrecursive(t *testing.T) {
	rule := datalog.NewRule("T", []datalog.TypedValue{"?x", "?y"}, []datalog.BodyAtomSpec{
		{Symbol: "E", Values: []datalog.TypedValue{"?x", "?y"}},
	})
	program := datalog.NewProgram([]datalog.Rule{rule})

	nr, r := Split(program)
	require.Len(t, nr.Rules, 1)
	require.Empty(t, r.Rules)
}
