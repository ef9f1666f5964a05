// Package driver implements the semi-naive evaluation loop described in
// SPEC_FULL.md §4.G: seed deltas, materialize the non-recursive half
// once, materialize the recursive half to a fixed point, drain deltas,
// and close the session.
package driver

import (
	"fmt"
	"sort"
	"strings"

	"terry/internal/datalog"
	"terry/internal/delta"
	"terry/internal/eval"
	"terry/internal/split"
	"terry/internal/sqlchan"
	"terry/internal/strata"
	"terry/internal/terryerr"
	"terry/internal/terrylog"
)

// defaultIterationCap bounds the recursive materialize loop as a
// defensive, policy-level guard (spec.md §7): a stratified program over
// a finite domain always converges, so hitting this is a bug signal, not
// an expected outcome.
const defaultIterationCap = 10_000

// Driver owns one sqlchan.Channel session and materializes one Program
// to a fixed point via Poll.
type Driver struct {
	ch      *sqlchan.Channel
	program datalog.Program
	schema  *datalog.Schema

	relations []datalog.Symbol // every base relation symbol in program, ascending

	nr datalog.Program // stratified non-recursive half of Δ(P, update=true)
	r  datalog.Program // recursive half of Δ(P, update=true)

	iterationCap int
}

// New constructs a Driver, ensures the delta/double-delta bookkeeping
// tables exist for every relation in program, and pre-computes the
// stratified non-recursive and recursive delta halves.
func New(ch *sqlchan.Channel, program datalog.Program, schema *datalog.Schema) (*Driver, error) {
	d := &Driver{
		ch:           ch,
		program:      program,
		schema:       schema,
		relations:    collectRelations(program),
		iterationCap: defaultIterationCap,
	}

	if err := d.bootstrap(); err != nil {
		return nil, err
	}

	updateProgram := delta.MakeDeltaProgram(program, true)
	nonrecursive, recursive := split.Split(updateProgram)
	d.nr = strata.Stratify(nonrecursive)
	d.r = recursive

	return d, nil
}

// WithIterationCap overrides the default outer iteration cap.
func (d *Driver) WithIterationCap(cap int) *Driver {
	d.iterationCap = cap
	return d
}

func collectRelations(program datalog.Program) []datalog.Symbol {
	seen := make(map[datalog.Symbol]bool)
	var out []datalog.Symbol
	add := func(s datalog.Symbol) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, rule := range program.Rules {
		add(rule.Head.Symbol)
		for _, a := range rule.Body {
			add(a.Symbol)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func baseColumns(rel datalog.Symbol, arity int) []string {
	cols := make([]string, arity)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s_%d", rel, i)
	}
	return cols
}

func (d *Driver) createTable(name datalog.Symbol, cols []string, tag sqlchan.Tag) error {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " INTEGER"
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
	return d.ch.Exec(tag, sql, "")
}

// bootstrap ensures a table exists for every ordinary relation (callers
// are expected to have already loaded EDB facts into these) and creates
// an empty delta and double-delta table beside each one.
func (d *Driver) bootstrap() error {
	for _, rel := range d.relations {
		arity, err := d.schema.Arity(rel)
		if err != nil {
			return err
		}
		cols := baseColumns(rel, arity)

		if err := d.createTable(rel, cols, sqlchan.CompilerInit); err != nil {
			return err
		}
		if err := d.createTable(datalog.Symbol(delta.Prefix+string(rel)), cols, sqlchan.CompilerInit); err != nil {
			return err
		}
		if err := d.createTable(datalog.Symbol(delta.Prefix+delta.Prefix+string(rel)), cols, sqlchan.CompilerInit); err != nil {
			return err
		}
	}
	return nil
}

// Poll runs the five-step semi-naive procedure described in spec.md
// §4.G and closes the channel on success.
func (d *Driver) Poll() error {
	seedTimer := terrylog.StartTimer(terrylog.CategoryDriver, "seed_deltas")
	if err := d.seedDeltas(); err != nil {
		return err
	}
	seedTimer.Stop()

	d.ch.IncrementIter()
	nrTimer := terrylog.StartTimer(terrylog.CategoryDriver, "materialize_nonrecursive")
	if err := d.materializeNonrecursive(); err != nil {
		return err
	}
	nrTimer.Stop()

	prev, err := d.totalRowCount()
	if err != nil {
		return err
	}

	iterations := 0
	for {
		d.ch.IncrementIter()
		rTimer := terrylog.StartTimer(terrylog.CategoryDriver, "materialize_recursive")
		if err := d.materializeRecursive(); err != nil {
			return err
		}
		rTimer.Stop()
		iterations++
		if iterations > d.iterationCap {
			return terryerr.NewIterationCapExceededError(iterations, d.iterationCap)
		}

		total, err := d.totalRowCount()
		if err != nil {
			return err
		}
		if total == prev {
			break
		}
		prev = total
	}
	terrylog.Get(terrylog.CategoryDriver).Info("reached fixed point after %d recursive iterations", iterations)

	drainTimer := terrylog.StartTimer(terrylog.CategoryDriver, "drain_deltas")
	if err := d.drainDeltas(); err != nil {
		return err
	}
	drainTimer.Stop()

	return d.ch.Close()
}

// seedDeltas copies every ordinary relation's current contents into its
// delta relation, priming materialize_nonrecursive with any pre-existing
// EDB facts.
func (d *Driver) seedDeltas() error {
	for _, rel := range d.relations {
		dRel := delta.Prefix + string(rel)
		sql := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", dRel, rel)
		if err := d.ch.Exec(sqlchan.MatNonrec, sql, ""); err != nil {
			return err
		}
	}
	return nil
}

// materializeNonrecursive runs every rule of the stratified non-recursive
// half once, in order, per spec.md §4.G step 2.
func (d *Driver) materializeNonrecursive() error {
	firstWriter := make(map[string]bool)

	for _, rule := range d.nr.Rules {
		label := rule.Serialize()
		if err := eval.New(d.ch, rule).Step(); err != nil {
			return err
		}

		dHead := string(rule.Head.Symbol)
		ddHead := delta.Prefix + dHead
		baseHead := datalog.Symbol(delta.StripPrefix(rule.Head.Symbol))

		insert := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s EXCEPT SELECT * FROM %s", baseHead, ddHead, dHead)
		if err := d.ch.Exec(sqlchan.MatNonrec, insert, label); err != nil {
			return err
		}

		if !firstWriter[dHead] {
			firstWriter[dHead] = true
			if err := d.rotateDelta(dHead, ddHead, baseHead, label); err != nil {
				return err
			}
		} else {
			appendSQL := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s EXCEPT SELECT * FROM %s", dHead, ddHead, dHead)
			if err := d.ch.Exec(sqlchan.MatNonrec, appendSQL, label); err != nil {
				return err
			}
		}

		if err := d.ch.Exec(sqlchan.MatNonrec, fmt.Sprintf("DELETE FROM %s", ddHead), label); err != nil {
			return err
		}
	}
	return nil
}

// rotateDelta replaces dHead's contents with newly-derived-only facts:
// rename it aside, recreate it empty, refill it with whatever ddHead
// holds that the old contents didn't, then drop the renamed table.
func (d *Driver) rotateDelta(dHead, ddHead string, baseHead datalog.Symbol, label string) error {
	tempName := "TEMP_" + dHead
	if err := d.ch.Exec(sqlchan.MatNonrec, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", dHead, tempName), label); err != nil {
		return err
	}

	arity, err := d.schema.Arity(baseHead)
	if err != nil {
		return err
	}
	if err := d.createTable(datalog.Symbol(dHead), baseColumns(baseHead, arity), sqlchan.MatNonrec); err != nil {
		return err
	}

	insert := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s EXCEPT SELECT * FROM %s", dHead, ddHead, tempName)
	if err := d.ch.Exec(sqlchan.MatNonrec, insert, label); err != nil {
		return err
	}

	return d.ch.Exec(sqlchan.MatNonrec, fmt.Sprintf("DROP TABLE %s", tempName), label)
}

// materializeRecursive evaluates every rule of the recursive half once,
// threading genuinely-new facts through a scratch DIFF_ table per head,
// per spec.md §4.G step 3. This interleaves each rule's evaluate-diff-
// rotate steps rather than running the reference's two full passes
// (evaluate every rule into ddR, then one DIFF pass per head symbol);
// for positive Datalog the two orderings reach the same fixed point, but
// this one changes intermediate trace ordering between heads.
func (d *Driver) materializeRecursive() error {
	firstWriter := make(map[string]bool)

	for _, rule := range d.r.Rules {
		label := rule.Serialize()
		if err := eval.New(d.ch, rule).Step(); err != nil {
			return err
		}

		dHead := string(rule.Head.Symbol)
		ddHead := delta.Prefix + dHead
		baseHead := datalog.Symbol(delta.StripPrefix(rule.Head.Symbol))
		diff := "DIFF_" + ddHead

		arity, err := d.schema.Arity(baseHead)
		if err != nil {
			return err
		}
		if err := d.createTable(datalog.Symbol(diff), baseColumns(baseHead, arity), sqlchan.MatRec); err != nil {
			return err
		}

		populate := fmt.Sprintf(
			"INSERT INTO %s SELECT * FROM (SELECT * FROM %s EXCEPT SELECT * FROM %s) EXCEPT SELECT * FROM %s",
			diff, ddHead, dHead, baseHead,
		)
		if err := d.ch.Exec(sqlchan.MatRec, populate, label); err != nil {
			return err
		}

		insertHead := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", baseHead, diff)
		if err := d.ch.Exec(sqlchan.MatRec, insertHead, label); err != nil {
			return err
		}

		if !firstWriter[dHead] {
			firstWriter[dHead] = true
			if err := d.ch.Exec(sqlchan.MatRec, fmt.Sprintf("DROP TABLE %s", dHead), label); err != nil {
				return err
			}
			if err := d.createTable(datalog.Symbol(dHead), baseColumns(baseHead, arity), sqlchan.MatRec); err != nil {
				return err
			}
		}
		insertDelta := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", dHead, diff)
		if err := d.ch.Exec(sqlchan.MatRec, insertDelta, label); err != nil {
			return err
		}

		if err := d.ch.Exec(sqlchan.MatRec, fmt.Sprintf("DELETE FROM %s", ddHead), label); err != nil {
			return err
		}
		if err := d.ch.Exec(sqlchan.MatRec, fmt.Sprintf("DROP TABLE %s", diff), label); err != nil {
			return err
		}
	}
	return nil
}

// drainDeltas moves any remaining delta contents into their base
// relation and empties every delta table, per spec.md §4.G step 4.
func (d *Driver) drainDeltas() error {
	for _, rel := range d.relations {
		dRel := delta.Prefix + string(rel)
		insert := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s EXCEPT SELECT * FROM %s", rel, dRel, rel)
		if err := d.ch.Exec(sqlchan.Drain, insert, ""); err != nil {
			return err
		}
		if err := d.ch.Exec(sqlchan.Drain, fmt.Sprintf("DELETE FROM %s", dRel), ""); err != nil {
			return err
		}
	}
	return nil
}

// totalRowCount sums COUNT(*) across every ordinary relation; the
// recursive loop runs until this stops growing between iterations.
func (d *Driver) totalRowCount() (int64, error) {
	var total int64
	for _, rel := range d.relations {
		rows, err := d.ch.Execute(sqlchan.FactCount, fmt.Sprintf("SELECT COUNT(*) FROM %s", rel), "")
		if err != nil {
			return 0, err
		}
		var n int64
		if rows.Next() {
			if err := rows.Scan(&n); err != nil {
				rows.Close()
				return 0, terryerr.NewSQLError("scan row count", err)
			}
		}
		rows.Close()
		total += n
	}
	return total, nil
}
