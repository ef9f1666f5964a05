package delta

import (
	"testing"

	"github.com/stretchr/testify/require"

	"terry/internal/datalog"
)

func denseProgram() datalog.Program {
	return datalog.NewProgram([]datalog.Rule{
		datalog.NewRule("T", []datalog.TypedValue{"?x", "?y"}, []datalog.BodyAtomSpec{
			{Symbol: "E", Values: []datalog.TypedValue{"?x", "?y"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?x", "?z"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?x", "?y"}},
			{Symbol: "E", Values: []datalog.TypedValue{"?y", "?z"}},
		}),
	})
}

func TestMakeDeltaProgramNonUpdateCaseA(t *testing.T) {
	// The non-recursive rule T(x,y):-E(x,y) has no IDB in its body, so
	// Case A fires: only the head is deltified.
	p := MakeDeltaProgram(denseProgram(), false)

	found := false
	for _, r := range p.Rules {
		if r.Head.Symbol == "dT" && len(r.Body) == 1 && r.Body[0].Symbol == "E" {
			found = true
		}
	}
	require.True(t, found, "expected a Case A rule dT(x,y):-E(x,y), got %v", p.Rules)
}

func TestMakeDeltaProgramNonUpdateCaseB(t *testing.T) {
	// The recursive rule has T (IDB) as its first body atom, so Case B
	// deltifies only that position, leaving E untouched.
	p := MakeDeltaProgram(denseProgram(), false)

	found := false
	for _, r := range p.Rules {
		if r.Head.Symbol == "dT" && len(r.Body) == 2 && r.Body[0].Symbol == "dT" && r.Body[1].Symbol == "E" {
			found = true
		}
	}
	require.True(t, found, "expected dT(x,z):-dT(x,y),E(y,z), got %v", p.Rules)
}

func TestMakeDeltaProgramUpdateDeltifiesEveryPosition(t *testing.T) {
	// update=true deltifies every body position, including E, even though
	// E is an EDB relation with no rules of its own.
	p := MakeDeltaProgram(denseProgram(), true)

	foundLeft, foundRight := false, false
	for _, r := range p.Rules {
		if r.Head.Symbol != "dT" || len(r.Body) != 2 {
			continue
		}
		if r.Body[0].Symbol == "dT" && r.Body[1].Symbol == "E" {
			foundLeft = true
		}
		if r.Body[0].Symbol == "T" && r.Body[1].Symbol == "dE" {
			foundRight = true
		}
	}
	require.True(t, foundLeft, "missing left-deltified rule")
	require.True(t, foundRight, "missing right-deltified rule")
}

func TestMakeDeltaProgramDedupes(t *testing.T) {
	p := MakeDeltaProgram(denseProgram(), true)
	seen := make(map[string]bool)
	for _, r := range p.Rules {
		s := r.Serialize()
		require.False(t, seen[s], "duplicate rule %s", s)
		seen[s] = true
	}
}

func TestStripPrefix(t *testing.T) {
	require.Equal(t, "T", StripPrefix("T"))
	require.Equal(t, "T", StripPrefix("dT"))
	require.Equal(t, "T", StripPrefix("ddT"))
	// A base name that itself ends in "d" is not corrupted: only a bounded
	// leading run is trimmed, never a trailing one.
	require.Equal(t, "good", StripPrefix("good"))
	require.Equal(t, "good", StripPrefix("dgood"))
}
