// Package dred implements the DRed (delete/rederive) sibling rewriters
// described in spec.md §9: MakeOverdeletionProgram and
// MakeRederivationProgram. Neither is invoked by internal/driver — they
// are exercised standalone, by this package's own tests and by
// cmd/terry's dred subcommand.
package dred

import "terry/internal/datalog"

// OverdeletionPrefix marks a relation holding candidate overdeletions.
const OverdeletionPrefix = "delete_"

// RederivationPrefix marks a relation holding rederivation candidates.
const RederivationPrefix = "rederive_"

// MakeOverdeletionProgram builds, for every rule and every body position
// i, a rule whose head and whose i-th body atom are both
// overdeletion-prefixed; every other body atom keeps its original
// symbol. This over-approximates which derived facts might need deleting
// when an EDB fact is retracted.
func MakeOverdeletionProgram(program datalog.Program) datalog.Program {
	seen := make(map[string]datalog.Rule)

	for _, rule := range program.Rules {
		overdeletionRule := rule.Clone()
		overdeletionRule.Head.Symbol = datalog.Symbol(OverdeletionPrefix + string(overdeletionRule.Head.Symbol))

		for idx := range rule.Body {
			newRule := overdeletionRule.Clone()
			newRule.Body[idx].Symbol = datalog.Symbol(OverdeletionPrefix + string(newRule.Body[idx].Symbol))
			seen[newRule.Serialize()] = newRule
		}
	}

	rules := make([]datalog.Rule, 0, len(seen))
	for _, r := range seen {
		rules = append(rules, r)
	}
	return datalog.NewProgram(rules)
}

// MakeRederivationProgram builds, for every rule, a rederivation rule
// whose head is rederivation-prefixed and whose body gains a leading
// atom requiring the original (unprefixed) head to still be a candidate
// overdeletion — i.e. it can only rederive a fact that overdeletion
// actually flagged.
func MakeRederivationProgram(program datalog.Program) datalog.Program {
	seen := make(map[string]datalog.Rule)

	for _, rule := range program.Rules {
		rederivationRule := rule.Clone()

		rederivationHead := rederivationRule.Head.Clone()
		rederivationHead.Symbol = datalog.Symbol(OverdeletionPrefix + string(rederivationHead.Symbol))

		rederivationRule.Body = append([]datalog.Atom{rederivationHead}, rederivationRule.Body...)
		rederivationRule.Head.Symbol = datalog.Symbol(RederivationPrefix + string(rederivationRule.Head.Symbol))

		seen[rederivationRule.Serialize()] = rederivationRule
	}

	rules := make([]datalog.Rule, 0, len(seen))
	for _, r := range seen {
		rules = append(rules, r)
	}
	return datalog.NewProgram(rules)
}
