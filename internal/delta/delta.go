// Package delta implements the delta-program rewriter: given a Program P,
// it produces the incrementalized Program Δ(P) used to drive semi-naive
// evaluation, per SPEC_FULL.md §4.B.
package delta

import (
	"strings"

	"terry/internal/datalog"
)

// Prefix is the single-character symbol prefix denoting a delta relation.
// It must not collide with any user-supplied symbol (see DESIGN.md's
// resolution of spec.md §9 Open Question 2).
const Prefix = "d"

// MakeDeltaProgram produces Δ(P): for every rule, the head symbol is
// prefixed with Prefix, and the body is deltified position-by-position
// per spec.md's Case A / Case B split.
//
// Case A (update=false, no IDB atom in the body): emit the rule with only
// the head deltified.
//
// Case B (otherwise): for every body position i that is either an IDB
// atom (update=false) or any atom at all (update=true), emit one rule
// that deltifies the head and that single body position; every other
// body atom keeps its non-delta symbol. The union over positions
// reconstructs the full, non-deduplicated derivation set per semi-naive
// theory.
func MakeDeltaProgram(program datalog.Program, update bool) datalog.Program {
	idb := program.HeadSymbols()

	seen := make(map[string]datalog.Rule)
	for _, rule := range program.Rules {
		deltaRule := rule.Clone()
		deltaRule.Head.Symbol = datalog.Symbol(Prefix + string(deltaRule.Head.Symbol))

		containsIDB := false
		for _, bodyAtom := range rule.Body {
			if idb[bodyAtom.Symbol] {
				containsIDB = true
				break
			}
		}

		if !containsIDB && !update {
			addRule(seen, deltaRule)
			continue
		}

		for idx, bodyAtom := range rule.Body {
			if update || idb[bodyAtom.Symbol] {
				newRule := deltaRule.Clone()
				newRule.Body[idx].Symbol = datalog.Symbol(Prefix + string(bodyAtom.Symbol))
				addRule(seen, newRule)
			}
		}
	}

	rules := make([]datalog.Rule, 0, len(seen))
	for _, r := range seen {
		rules = append(rules, r)
	}
	return datalog.NewProgram(rules)
}

func addRule(seen map[string]datalog.Rule, r datalog.Rule) {
	seen[r.Serialize()] = r
}

// StripPrefix recovers a relation's base name by trimming up to two
// leading occurrences of Prefix (R, ΔR, or ΔΔR all map to R). This trims
// only a bounded leading run rather than the reference implementation's
// str.strip(DELTA_PREFIX) — which strips any leading OR trailing run of
// the prefix character and so can corrupt a base name that happens to
// end in "d" (spec.md §9 Open Question 2); see DESIGN.md.
func StripPrefix(sym datalog.Symbol) string {
	s := string(sym)
	for i := 0; i < 2 && strings.HasPrefix(s, Prefix); i++ {
		s = strings.TrimPrefix(s, Prefix)
	}
	return s
}
