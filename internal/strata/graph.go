// Package strata builds the rule-level dependency DAG of a program and
// stratifies it by IDB dependency, per SPEC_FULL.md §4.C. Stratification
// uses a hand-rolled Tarjan SCC — per spec.md §9's Design Notes, a
// language-native SCC implementation is sufficient for a rule graph of a
// few hundred nodes, so no external graph library is pulled in here.
package strata

import "terry/internal/datalog"

// Graph is a directed graph over rules: an edge s -> r means "s must be
// saturated before r can be reconsidered", because s's head symbol
// appears in r's body.
type Graph struct {
	rules []datalog.Rule
	edges map[int][]int // rule.Id -> []rule.Id
}

// Build constructs the dependency graph for program: for every rule r and
// every body atom whose symbol is the head symbol of some rule(s)
// {s1,...}, an edge si -> r is added.
func Build(program datalog.Program) *Graph {
	g := &Graph{
		rules: append([]datalog.Rule(nil), program.Rules...),
		edges: make(map[int][]int),
	}

	headRules := make(map[datalog.Symbol][]datalog.Rule)
	for _, r := range program.Rules {
		headRules[r.Head.Symbol] = append(headRules[r.Head.Symbol], r)
	}

	for _, r := range program.Rules {
		for _, bodyAtom := range r.Body {
			for _, src := range headRules[bodyAtom.Symbol] {
				g.edges[src.Id] = append(g.edges[src.Id], r.Id)
			}
		}
	}
	return g
}
