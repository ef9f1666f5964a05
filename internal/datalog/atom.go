package datalog

import "strings"

// Symbol is a relation name. Arity is the length of an atom's term list.
type Symbol string

// Atom is a pair (symbol, ordered list of terms).
type Atom struct {
	Symbol Symbol
	Terms  []Term
}

// NewAtom builds an Atom from a symbol and a list of raw term values.
// Strings beginning with "?" are variables (sans the prefix); any other
// value, including a string not starting with "?", is a constant.
func NewAtom(symbol string, values []TypedValue) Atom {
	terms := make([]Term, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "?") {
			terms = append(terms, Variable{Name: s[1:]})
			continue
		}
		terms = append(terms, Constant{Value: v})
	}
	return Atom{Symbol: Symbol(symbol), Terms: terms}
}

// Arity is the number of terms in the atom.
func (a Atom) Arity() int {
	return len(a.Terms)
}

// Equal reports whether two atoms have the same symbol and term sequence.
func (a Atom) Equal(o Atom) bool {
	return a.Serialize() == o.Serialize()
}

// Serialize returns the canonical textual form used as a sort key, hash
// input, and equality check.
func (a Atom) Serialize() string {
	var b strings.Builder
	b.WriteString(string(a.Symbol))
	b.WriteByte('(')
	for i, t := range a.Terms {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.Serialize())
	}
	b.WriteByte(')')
	return b.String()
}

// Clone returns a deep copy of the atom; downstream rewriters must not
// alias terms between input and output programs.
func (a Atom) Clone() Atom {
	terms := make([]Term, len(a.Terms))
	copy(terms, a.Terms)
	return Atom{Symbol: a.Symbol, Terms: terms}
}

// WithSymbol returns a copy of the atom with its symbol replaced.
func (a Atom) WithSymbol(symbol Symbol) Atom {
	c := a.Clone()
	c.Symbol = symbol
	return c
}
