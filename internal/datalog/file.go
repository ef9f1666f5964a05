package datalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleFile and AtomFile are the on-disk JSON/YAML shape cmd/terry reads
// program files in and dred rewrites write them back out as: a thin,
// directly-serializable mirror of NewRule/BodyAtomSpec's arguments.
type RuleFile struct {
	Head AtomFile   `json:"head" yaml:"head"`
	Body []AtomFile `json:"body" yaml:"body"`
}

// AtomFile is a (symbol, values) pair; a value of "?name" is a variable,
// anything else is a constant, matching NewAtom's convention.
type AtomFile struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Values []any  `json:"values" yaml:"values"`
}

// ProgramFile is the top-level document: a bare list of rules.
type ProgramFile struct {
	Rules []RuleFile `json:"rules" yaml:"rules"`
}

// ToProgram converts the file form into a canonically-sorted Program via
// NewRule/NewProgram.
func (pf ProgramFile) ToProgram() Program {
	rules := make([]Rule, 0, len(pf.Rules))
	for _, rf := range pf.Rules {
		body := make([]BodyAtomSpec, 0, len(rf.Body))
		for _, a := range rf.Body {
			body = append(body, BodyAtomSpec{Symbol: a.Symbol, Values: toTypedValues(a.Values)})
		}
		rules = append(rules, NewRule(rf.Head.Symbol, toTypedValues(rf.Head.Values), body))
	}
	return NewProgram(rules)
}

// toTypedValues normalizes decoded raw values into TypedValue. JSON's
// decoder always produces float64 for numbers (encoding/json has no int
// type in its any-typed form), while YAML and Go-constructed programs
// use int; normalize a whole-valued float64 back to int so a JSON-loaded
// program compares equal to, and serializes the same column literal as,
// one built or loaded from YAML.
func toTypedValues(values []any) []TypedValue {
	out := make([]TypedValue, len(values))
	for i, v := range values {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			out[i] = int(f)
			continue
		}
		out[i] = v
	}
	return out
}

// ProgramToFile converts a Program back to its serializable form,
// reconstructing raw term values ("?name" for variables, the constant's
// value otherwise) from the typed AST.
func ProgramToFile(p Program) ProgramFile {
	rules := make([]RuleFile, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, RuleFile{
			Head: atomToFile(r.Head),
			Body: atomsToFile(r.Body),
		})
	}
	return ProgramFile{Rules: rules}
}

func atomsToFile(atoms []Atom) []AtomFile {
	out := make([]AtomFile, len(atoms))
	for i, a := range atoms {
		out[i] = atomToFile(a)
	}
	return out
}

func atomToFile(a Atom) AtomFile {
	values := make([]any, len(a.Terms))
	for i, t := range a.Terms {
		switch term := t.(type) {
		case Variable:
			values[i] = "?" + term.Name
		case Constant:
			values[i] = term.Value
		}
	}
	return AtomFile{Symbol: string(a.Symbol), Values: values}
}

// LoadProgramFile reads a Program from path, parsed as JSON for a .json
// extension and as YAML otherwise (a JSON document is also valid YAML, so
// the YAML path accepts both in practice).
func LoadProgramFile(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Program{}, fmt.Errorf("read program file %s: %w", path, err)
	}

	var pf ProgramFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &pf); err != nil {
			return Program{}, fmt.Errorf("parse program file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return Program{}, fmt.Errorf("parse program file %s: %w", path, err)
		}
	}
	return pf.ToProgram(), nil
}

// SaveProgramFile writes p to path as indented JSON, regardless of the
// path's extension — dred's rewritten output is always JSON so that a
// round trip through LoadProgramFile is lossless.
func SaveProgramFile(p Program, path string) error {
	data, err := json.MarshalIndent(ProgramToFile(p), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal program: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
