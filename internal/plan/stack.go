package plan

import "terry/internal/datalog"

// Build lowers rule into a linear sequence of instructions implementing
// its selection/join/projection plan, per SPEC_FULL.md §4.E.
//
// Body atoms are processed left to right. After position i, an
// intermediate relation with an ordered cumulative column vector exists
// (or will be produced by the next Move/Select), representing the joined
// product of atoms 0..i. For each adjacent pair, a binary join is emitted
// only if the pair shares at least one variable; otherwise nothing is
// emitted for that pair and the two standing Move/Selects are left in
// place — the builder never emits an explicit cartesian product, so a
// rule whose atoms never share a variable with their neighbor falls
// through with duplicate Move/Select instructions for the atom that
// straddles two such pairs (the reference implementation's own
// degenerate behavior; see spec.md §9 Open Question 1 and DESIGN.md).
//
// A single-atom body is lowered to a plain Move followed by the Project;
// no Select is emitted for it, even when the atom holds a constant.
func Build(rule datalog.Rule) []Instruction {
	var instructions []Instruction

	var lastJoinResultName datalog.Symbol
	var lastJoinTerms []datalog.Term

	body := rule.Body
	for i := 0; i < len(body); i++ {
		currentAtom := body[i]
		if i+1 < len(body) {
			nextAtom := body[i+1]
			leftSymbol := currentAtom.Symbol
			leftTerms := currentAtom.Terms
			rightSymbol := nextAtom.Symbol
			rightTerms := nextAtom.Terms

			if lastJoinResultName == "" {
				if sel, ok := getSelection(leftSymbol, leftTerms); ok {
					leftSymbol = StringifySelect(sel)
					instructions = append(instructions, sel)
				} else {
					instructions = append(instructions, Move{Symbol: leftSymbol})
				}
			} else {
				leftSymbol = lastJoinResultName
				leftTerms = lastJoinTerms
			}

			if sel, ok := getSelection(rightSymbol, rightTerms); ok {
				rightSymbol = StringifySelect(sel)
				instructions = append(instructions, sel)
			} else {
				instructions = append(instructions, Move{Symbol: rightSymbol})
			}

			if keys := getJoinKeys(leftTerms, rightTerms); len(keys) > 0 {
				j := Join{Left: leftSymbol, Right: rightSymbol, Keys: keys}
				lastJoinResultName = StringifyJoin(j)
				lastJoinTerms = append(append([]datalog.Term{}, leftTerms...), rightTerms...)
				instructions = append(instructions, j)
			}
		} else {
			if len(instructions) == 0 {
				instructions = append(instructions, Move{Symbol: currentAtom.Symbol})
			}
			instructions = append(instructions, getProjection(rule))
		}
	}
	return instructions
}

// getSelection picks the first constant term (lowest index) in terms as
// the selection key. Additional constants in the same atom are not
// lifted into further Selects (spec.md §9 Open Question 1).
func getSelection(symbol datalog.Symbol, terms []datalog.Term) (Select, bool) {
	for idx, t := range terms {
		if c, ok := t.(datalog.Constant); ok {
			return Select{Symbol: symbol, Column: idx, Value: c.Value}, true
		}
	}
	return Select{}, false
}

// variableIndex maps each variable name appearing in terms to its index,
// keyed in first-occurrence order but valued with the LAST occurrence's
// index — matching the reference implementation's plain-dict-overwrite
// behavior (a dict keeps a key's original insertion position but accepts
// a later value on repeated assignment).
type variableIndex struct {
	order []string
	index map[string]int
}

func newVariableIndex(terms []datalog.Term) variableIndex {
	vi := variableIndex{index: make(map[string]int)}
	for idx, t := range terms {
		if v, ok := t.(datalog.Variable); ok {
			if _, seen := vi.index[v.Name]; !seen {
				vi.order = append(vi.order, v.Name)
			}
			vi.index[v.Name] = idx
		}
	}
	return vi
}

// getJoinKeys scans variables shared between leftTerms and rightTerms and
// returns one (leftIndex, rightIndex) pair per shared variable name, in
// the order the variable was first seen on the left.
func getJoinKeys(leftTerms, rightTerms []datalog.Term) []KeyPair {
	leftVars := newVariableIndex(leftTerms)
	rightVars := newVariableIndex(rightTerms)

	var keys []KeyPair
	for _, name := range leftVars.order {
		if rightIdx, ok := rightVars.index[name]; ok {
			keys = append(keys, KeyPair{LeftCol: leftVars.index[name], RightCol: rightIdx})
		}
	}
	return keys
}

// getProjection computes the rule's terminal Project instruction: walk
// the body atom-by-atom, term-by-term, counting each term position
// (0-based) across the concatenated natural-join schema; for each head
// variable, use the FIRST position where it appeared. For each head
// constant, emit a literal Value.
func getProjection(rule datalog.Rule) Project {
	headVarNames := make(map[string]bool)
	for _, t := range rule.Head.Terms {
		if v, ok := t.(datalog.Variable); ok {
			headVarNames[v.Name] = true
		}
	}

	seen := make(map[string]bool)
	varPosition := make(map[string]int)
	position := 0
	for _, atom := range rule.Body {
		for _, t := range atom.Terms {
			if v, ok := t.(datalog.Variable); ok {
				if !seen[v.Name] {
					seen[v.Name] = true
					if headVarNames[v.Name] {
						varPosition[v.Name] = position
					}
				}
			}
			position++
		}
	}

	inputs := make([]ProjectionInput, 0, len(rule.Head.Terms))
	for _, t := range rule.Head.Terms {
		switch v := t.(type) {
		case datalog.Variable:
			inputs = append(inputs, Column{Index: varPosition[v.Name]})
		case datalog.Constant:
			inputs = append(inputs, Value{Constant: v.Value})
		}
	}

	return Project{Symbol: rule.Head.Symbol, ProjectionInputs: inputs}
}
