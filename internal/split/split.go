// Package split implements the recursive/non-recursive partition of a
// delta program, per SPEC_FULL.md §4.D.
package split

import "terry/internal/datalog"

// Split partitions program into (nonrecursive, recursive) halves. A rule
// is recursive if its head symbol appears among its own body atoms'
// symbols; all others are non-recursive. Both outputs are independently
// canonicalized.
func Split(program datalog.Program) (nonrecursive, recursive datalog.Program) {
	var nr, r []datalog.Rule
	for _, rule := range program.Rules {
		isRecursive := false
		for _, bodyAtom := range rule.Body {
			if bodyAtom.Symbol == rule.Head.Symbol {
				isRecursive = true
				break
			}
		}
		if isRecursive {
			r = append(r, rule.Clone())
		} else {
			nr = append(nr, rule.Clone())
		}
	}
	return datalog.NewProgram(nr), datalog.NewProgram(r)
}
