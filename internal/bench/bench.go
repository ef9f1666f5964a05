// Package bench wires a loader, a driver, and repeated timed Poll() runs
// into the benchmark harness described in spec.md §1's "benchmark
// drivers and data loaders" and ported from the reference
// benchmark_sqlite.py: reset the database, load facts, run poll() while
// timing it, and record the resulting trace.
package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"terry/internal/datalog"
	"terry/internal/driver"
	"terry/internal/sqlchan"
)

// DenseProgram is the right-linear transitive-closure program the
// reference dense/sparse benchmarks run over relation E.
func DenseProgram() datalog.Program {
	return datalog.NewProgram([]datalog.Rule{
		datalog.NewRule("T", []datalog.TypedValue{"?x", "?y"}, []datalog.BodyAtomSpec{
			{Symbol: "E", Values: []datalog.TypedValue{"?x", "?y"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?x", "?z"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?x", "?y"}},
			{Symbol: "E", Values: []datalog.TypedValue{"?y", "?z"}},
		}),
	})
}

// RDFSProgram is the seven-rule RDFS-entailment program spec.md §8
// Scenario 6 runs over the LUBM-1 fact set, ported verbatim from the
// reference benchmark's run_rdf. Predicate constants (0-4) correspond to
// the first five terms loader.LoadNTriples pre-interns: type,
// subClassOf, subPropertyOf, domain, range.
func RDFSProgram() datalog.Program {
	return datalog.NewProgram([]datalog.Rule{
		datalog.NewRule("T", []datalog.TypedValue{"?s", "?p", "?o"}, []datalog.BodyAtomSpec{
			{Symbol: "RDF", Values: []datalog.TypedValue{"?s", "?p", "?o"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?y", 0, "?x"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?a", 3, "?x"}},
			{Symbol: "T", Values: []datalog.TypedValue{"?y", "?a", "?z"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?z", 0, "?x"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?a", 4, "?x"}},
			{Symbol: "T", Values: []datalog.TypedValue{"?y", "?a", "?z"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?x", 2, "?z"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?x", 2, "?y"}},
			{Symbol: "T", Values: []datalog.TypedValue{"?y", 2, "?z"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?x", 1, "?z"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?x", 1, "?y"}},
			{Symbol: "T", Values: []datalog.TypedValue{"?y", 1, "?z"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?z", 0, "?y"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?x", 1, "?y"}},
			{Symbol: "T", Values: []datalog.TypedValue{"?z", 0, "?x"}},
		}),
		datalog.NewRule("T", []datalog.TypedValue{"?x", "?b", "?y"}, []datalog.BodyAtomSpec{
			{Symbol: "T", Values: []datalog.TypedValue{"?a", 2, "?b"}},
			{Symbol: "T", Values: []datalog.TypedValue{"?x", "?a", "?y"}},
		}),
	})
}

// Result is one iteration's outcome: the test_run id, wall-clock
// milliseconds spent in Poll, and the resulting statement trace.
type Result struct {
	TestRun int                      `json:"test_run"`
	PollMS  int64                    `json:"poll_ms"`
	Trace   []sqlchan.StatementTrace `json:"trace"`
}

// Load populates a fresh database's EDB tables; supplied by the caller
// once a Channel is open for a given iteration.
type Load func(ch *sqlchan.Channel) error

// Run drives iters fresh poll() runs against dbPath: for each iteration,
// the database file is removed, a Channel is opened, load populates EDB
// facts, a Driver is constructed over program, and Poll is timed.
func Run(dialect sqlchan.Dialect, dbPath string, program datalog.Program, load Load, iters int) ([]Result, error) {
	schema, err := datalog.NewSchema(program)
	if err != nil {
		return nil, fmt.Errorf("bench: invalid program: %w", err)
	}

	results := make([]Result, 0, iters)
	for i := 1; i <= iters; i++ {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("bench: reset %s: %w", dbPath, err)
		}

		ch, err := sqlchan.Open(dialect, dbPath)
		if err != nil {
			return nil, err
		}
		ch = ch.WithTestRun(i)

		if err := load(ch); err != nil {
			return nil, fmt.Errorf("bench: load iteration %d: %w", i, err)
		}

		drv, err := driver.New(ch, program, schema)
		if err != nil {
			return nil, fmt.Errorf("bench: construct driver iteration %d: %w", i, err)
		}

		start := time.Now()
		if err := drv.Poll(); err != nil {
			return nil, fmt.Errorf("bench: poll iteration %d: %w", i, err)
		}
		elapsed := time.Since(start)

		results = append(results, Result{
			TestRun: i,
			PollMS:  elapsed.Milliseconds(),
			Trace:   ch.DumpBenchmark(),
		})
	}
	return results, nil
}

// DumpJSON writes results to path as JSON, matching the reference
// benchmark's json.dump of its accumulated trace/timing lists.
func DumpJSON(results []Result, path string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("bench: marshal results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
