package datalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ruleT() Rule {
	return NewRule("T", []TypedValue{"?x", "?y"}, []BodyAtomSpec{
		{Symbol: "E", Values: []TypedValue{"?x", "?y"}},
	})
}

func ruleTRecursive() Rule {
	return NewRule("T", []TypedValue{"?x", "?z"}, []BodyAtomSpec{
		{Symbol: "T", Values: []TypedValue{"?x", "?y"}},
		{Symbol: "E", Values: []TypedValue{"?y", "?z"}},
	})
}

func TestNewProgramAssignsCanonicalIds(t *testing.T) {
	p := NewProgram([]Rule{ruleTRecursive(), ruleT()})

	require.Len(t, p.Rules, 2)
	for i, r := range p.Rules {
		require.Equal(t, i, r.Id)
	}
	// Sorted by serialization, so the order is deterministic regardless of
	// input order.
	q := NewProgram([]Rule{ruleT(), ruleTRecursive()})
	require.Equal(t, p.Rules[0].Serialize(), q.Rules[0].Serialize())
	require.Equal(t, p.Rules[1].Serialize(), q.Rules[1].Serialize())
}

func TestProgramHeadSymbols(t *testing.T) {
	p := NewProgram([]Rule{ruleT(), ruleTRecursive()})
	heads := p.HeadSymbols()
	require.True(t, heads["T"])
	require.Len(t, heads, 1)
}

func TestProgramRulesByHead(t *testing.T) {
	p := NewProgram([]Rule{ruleT(), ruleTRecursive()})
	byHead := p.RulesByHead()
	require.Len(t, byHead["T"], 2)
}

func TestProgramCloneIndependence(t *testing.T) {
	p := NewProgram([]Rule{ruleT()})
	clone := p.Clone()
	clone.Rules[0].Head.Symbol = "mutated"
	require.Equal(t, Symbol("T"), p.Rules[0].Head.Symbol)
}

func TestFromOrderedPreservesOrder(t *testing.T) {
	rules := []Rule{ruleTRecursive(), ruleT()}
	p := FromOrdered(rules)
	require.Equal(t, rules[0].Serialize(), p.Rules[0].Serialize())
	require.Equal(t, rules[1].Serialize(), p.Rules[1].Serialize())
}
