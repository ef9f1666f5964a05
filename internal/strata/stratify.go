package strata

import (
	"sort"

	"terry/internal/datalog"
)

// Stratify orders program's rules by IDB dependency: rules are grouped
// into strongly connected components, each component is sorted ascending
// by rule id, components are linearized in an order consistent with the
// component DAG, and the resulting list is reversed. The reversal is
// load-bearing (spec.md §9 Open Question 3): it is what makes
// least-dependent rules come first, which the driver relies on.
//
// The stratifier is meant to be applied only to the non-recursive half of
// a delta program; the recursive half keeps the delta rewriter's
// canonical order untouched.
func Stratify(program datalog.Program) datalog.Program {
	g := Build(program)
	components := g.sccs()

	byID := make(map[int]datalog.Rule, len(g.rules))
	for _, r := range g.rules {
		byID[r.Id] = r
	}

	var ordered []datalog.Rule
	for _, comp := range components {
		sort.Ints(comp)
		for _, id := range comp {
			ordered = append(ordered, byID[id])
		}
	}

	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	return datalog.FromOrdered(ordered)
}
