// Package plan lowers a single Datalog rule into a linear sequence of
// selection/join/projection instructions (the "stack"), per
// SPEC_FULL.md §4.E.
package plan

import (
	"fmt"
	"strings"

	"terry/internal/datalog"
)

// Instruction is one step of a rule's evaluation plan.
type Instruction interface {
	isInstruction()
}

// Move treats symbol as the current intermediate input for the next join;
// it has no SQL side effect.
type Move struct {
	Symbol datalog.Symbol
}

func (Move) isInstruction() {}

// Select filters symbol where its Column-th field equals Value. The named
// result is StringifySelect(this).
type Select struct {
	Symbol datalog.Symbol
	Column int
	Value  datalog.TypedValue
}

func (Select) isInstruction() {}

// Join is an equijoin of two named relations on a list of (left, right)
// column-index pairs. Output columns are all of Left's columns followed
// by all of Right's columns, aliased to avoid collision.
type Join struct {
	Left  datalog.Symbol
	Right datalog.Symbol
	Keys  []KeyPair
}

func (Join) isInstruction() {}

// KeyPair is one equijoin key: (left column index, right column index).
type KeyPair struct {
	LeftCol  int
	RightCol int
}

// Project writes final tuples into DELTA_PREFIX+Symbol; ProjectionInputs
// must emit distinct tuples.
type Project struct {
	Symbol           datalog.Symbol
	ProjectionInputs []ProjectionInput
}

func (Project) isInstruction() {}

// ProjectionInput is either a Column (the k-th output column of the last
// intermediate) or a Value (a literal constant from the head).
type ProjectionInput interface {
	isProjectionInput()
}

// Column selects the k-th column of the last intermediate relation.
type Column struct {
	Index int
}

func (Column) isProjectionInput() {}

// Value is a literal constant copied straight from the rule head.
type Value struct {
	Constant datalog.TypedValue
}

func (Value) isProjectionInput() {}

// StringifyJoin names a Join's result relation:
// "{left}_{right}_{k0eqk1}_{k2eqk3}...".
func StringifyJoin(j Join) datalog.Symbol {
	parts := make([]string, len(j.Keys))
	for i, k := range j.Keys {
		parts[i] = fmt.Sprintf("%deq%d", k.LeftCol, k.RightCol)
	}
	return datalog.Symbol(fmt.Sprintf("%s_%s_%s", j.Left, j.Right, strings.Join(parts, "_")))
}

// StringifySelect names a Select's result relation: "{symbol}_{col}eq{value}".
func StringifySelect(s Select) datalog.Symbol {
	return datalog.Symbol(fmt.Sprintf("%s_%deq%v", s.Symbol, s.Column, s.Value))
}
