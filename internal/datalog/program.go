package datalog

import "sort"

// Program is an ordered sequence of rules, deterministically sorted on
// construction by the textual serialization of each rule. Each rule's Id
// equals its index after sorting; this canonical order is the tie-breaker
// for the stratifier, the delta rewriter's output, and the driver's
// "first rule writing this head" logic.
type Program struct {
	Rules []Rule
}

// NewProgram sorts rules by serialization and assigns canonical ids.
func NewProgram(rules []Rule) Program {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Serialize() < sorted[j].Serialize()
	})
	for idx := range sorted {
		sorted[idx].Id = idx
	}
	return Program{Rules: sorted}
}

// FromOrdered wraps an already-ordered rule slice as a Program without
// re-sorting or reassigning ids. Used by components (the stratifier) whose
// very purpose is to impose a specific rule order that canonical
// resorting would destroy.
func FromOrdered(rules []Rule) Program {
	return Program{Rules: rules}
}

// Len returns the number of rules in the program.
func (p Program) Len() int {
	return len(p.Rules)
}

// HeadSymbols returns the set of IDB head symbols in the program.
func (p Program) HeadSymbols() map[Symbol]bool {
	out := make(map[Symbol]bool, len(p.Rules))
	for _, r := range p.Rules {
		out[r.Head.Symbol] = true
	}
	return out
}

// RulesByHead groups rules by their head symbol, preserving relative order.
func (p Program) RulesByHead() map[Symbol][]Rule {
	out := make(map[Symbol][]Rule)
	for _, r := range p.Rules {
		out[r.Head.Symbol] = append(out[r.Head.Symbol], r)
	}
	return out
}

// Clone deep-copies every rule in the program.
func (p Program) Clone() Program {
	rules := make([]Rule, len(p.Rules))
	for i, r := range p.Rules {
		rules[i] = r.Clone()
	}
	return Program{Rules: rules}
}
