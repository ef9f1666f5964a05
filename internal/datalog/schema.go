package datalog

import (
	"terry/internal/terryerr"
)

// Schema records each relation's fixed arity, established by the first
// observed atom bearing that symbol. A production implementation must
// check the invariant the reference implementation assumes: every atom
// sharing a symbol has the same arity, and every head variable appears in
// the body (range restriction).
type Schema struct {
	arity map[Symbol]int
}

// NewSchema builds a Schema from a program, validating arity consistency
// and range restriction as it goes.
func NewSchema(p Program) (*Schema, error) {
	s := &Schema{arity: make(map[Symbol]int)}
	for _, r := range p.Rules {
		if err := s.observe(r.Head); err != nil {
			return nil, err
		}
		for _, a := range r.Body {
			if err := s.observe(a); err != nil {
				return nil, err
			}
		}
		if err := checkRangeRestriction(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) observe(a Atom) error {
	if existing, ok := s.arity[a.Symbol]; ok {
		if existing != a.Arity() {
			return terryerr.NewShapeError("relation %q observed with arity %d and %d", a.Symbol, existing, a.Arity())
		}
		return nil
	}
	s.arity[a.Symbol] = a.Arity()
	return nil
}

// Arity returns the fixed arity of symbol, or an error if it was never
// observed.
func (s *Schema) Arity(sym Symbol) (int, error) {
	a, ok := s.arity[sym]
	if !ok {
		return 0, terryerr.NewShapeError("unknown relation %q", sym)
	}
	return a, nil
}

func checkRangeRestriction(r Rule) error {
	bound := make(map[string]bool)
	for _, a := range r.Body {
		for _, t := range a.Terms {
			if v, ok := t.(Variable); ok {
				bound[v.Name] = true
			}
		}
	}
	for _, t := range r.Head.Terms {
		if v, ok := t.(Variable); ok && !bound[v.Name] {
			return terryerr.NewShapeError("head variable %q of rule %q does not appear in the body", v.Name, r.Serialize())
		}
	}
	return nil
}
