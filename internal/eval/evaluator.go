// Package eval executes a single rule's plan (built by internal/plan)
// against a SQL channel using rule-local temp tables, per
// SPEC_FULL.md §4.F.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"terry/internal/datalog"
	"terry/internal/delta"
	"terry/internal/plan"
	"terry/internal/sqlchan"
)

// RuleEvaluator builds and executes one rule's plan against a Channel,
// tracking the rule-local temp tables it created so they can be dropped
// before it returns control.
type RuleEvaluator struct {
	ch    *sqlchan.Channel
	rule  datalog.Rule
	label string

	// baseRelations maps a relation symbol exactly as it appears in the
	// rule (possibly delta- or double-delta-prefixed) to the column
	// names its base table is expected to have.
	baseRelations map[datalog.Symbol][]string
	// tmpRelations maps a Select/Join result name to its column list.
	tmpRelations map[datalog.Symbol][]string
	// tmpTableNames maps a Select/Join result name to the actual,
	// session-suffixed SQL table backing it, so that two Drivers
	// evaluating the same rule concurrently against a shared database
	// never collide on a rule-local scratch table name.
	tmpTableNames map[datalog.Symbol]string

	tempTables []string
}

// New builds a RuleEvaluator for rule against ch.
func New(ch *sqlchan.Channel, rule datalog.Rule) *RuleEvaluator {
	e := &RuleEvaluator{
		ch:            ch,
		rule:          rule,
		label:         rule.Serialize(),
		baseRelations: make(map[datalog.Symbol][]string),
		tmpRelations:  make(map[datalog.Symbol][]string),
		tmpTableNames: make(map[datalog.Symbol]string),
	}
	e.genBaseIdxList()
	return e
}

func columnNames(base string, arity int) []string {
	cols := make([]string, arity)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s_%d", base, i)
	}
	return cols
}

func (e *RuleEvaluator) genBaseIdxList() {
	head := e.rule.Head
	e.baseRelations[head.Symbol] = columnNames(delta.StripPrefix(head.Symbol), head.Arity())
	for _, a := range e.rule.Body {
		if _, ok := e.baseRelations[a.Symbol]; ok {
			continue
		}
		e.baseRelations[a.Symbol] = columnNames(delta.StripPrefix(a.Symbol), a.Arity())
	}
}

func (e *RuleEvaluator) idxList(symbol datalog.Symbol) []string {
	if cols, ok := e.tmpRelations[symbol]; ok {
		return cols
	}
	return e.baseRelations[symbol]
}

// tableName resolves symbol to the actual SQL table it is read from or
// written to: base/delta/double-delta relations use their bare symbol
// (owned by internal/driver, shared across rules), while a Select/Join
// result created by this evaluator is namespaced with the channel's
// session id so concurrent evaluators never collide on the name.
func (e *RuleEvaluator) tableName(symbol datalog.Symbol) string {
	if name, ok := e.tmpTableNames[symbol]; ok {
		return name
	}
	return string(symbol)
}

// registerTempTable names the actual SQL table for a newly-created
// Select/Join result, records it for later resolution and cleanup, and
// returns the name to create/insert into.
func (e *RuleEvaluator) registerTempTable(resultName datalog.Symbol, cols []string) string {
	actual := fmt.Sprintf("%s_%s", resultName, e.ch.SessionID)
	e.tmpTableNames[resultName] = actual
	e.tmpRelations[resultName] = cols
	e.tempTables = append(e.tempTables, actual)
	return actual
}

func createAliasCols(relation datalog.Symbol, n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s_%d_alias", relation, i)
	}
	return cols
}

// Step builds rule's plan and executes every instruction against the
// channel, then drops the rule-local temp tables it created.
func (e *RuleEvaluator) Step() error {
	instructions := plan.Build(e.rule)
	penultimate := len(instructions) - 2
	projectFrom := datalog.Symbol(e.rule.Head.Symbol)

	for idx, instr := range instructions {
		switch op := instr.(type) {
		case plan.Move:
			if idx == penultimate {
				projectFrom = op.Symbol
			}
		case plan.Select:
			resultName := plan.StringifySelect(op)
			if idx == penultimate {
				projectFrom = resultName
			}
			if err := e.execSelect(op, resultName); err != nil {
				return err
			}
		case plan.Join:
			resultName := plan.StringifyJoin(op)
			if idx == penultimate {
				projectFrom = resultName
			}
			if err := e.execJoin(op, resultName); err != nil {
				return err
			}
		case plan.Project:
			if err := e.execProject(op, projectFrom); err != nil {
				return err
			}
		}
	}

	return e.cleanup()
}

func (e *RuleEvaluator) execSelect(op plan.Select, resultName datalog.Symbol) error {
	cols := e.idxList(op.Symbol)
	actual := e.registerTempTable(resultName, cols)

	createCols := make([]string, len(cols))
	for i, c := range cols {
		createCols[i] = c + " INTEGER"
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", actual, strings.Join(createCols, ", "))
	if err := e.ch.Exec(sqlchan.SPJSelect, createSQL, e.label); err != nil {
		return err
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s SELECT * FROM %s WHERE %s = %s",
		actual, e.tableName(op.Symbol), cols[op.Column], sqlLiteral(op.Value),
	)
	return e.ch.Exec(sqlchan.SPJSelect, insertSQL, e.label)
}

func (e *RuleEvaluator) execJoin(op plan.Join, resultName datalog.Symbol) error {
	leftCols := e.idxList(op.Left)
	rightCols := e.idxList(op.Right)
	aliasCols := createAliasCols(op.Right, len(rightCols))

	selectList := make([]string, 0, len(leftCols)+len(rightCols))
	for _, c := range leftCols {
		selectList = append(selectList, "X."+c)
	}
	for i, c := range rightCols {
		selectList = append(selectList, fmt.Sprintf("Y.%s AS %s", c, aliasCols[i]))
	}

	joinCols := append(append([]string{}, leftCols...), aliasCols...)

	conditions := make([]string, len(op.Keys))
	for i, k := range op.Keys {
		conditions[i] = fmt.Sprintf("X.%s = Y.%s", leftCols[k.LeftCol], rightCols[k.RightCol])
	}

	actual := e.registerTempTable(resultName, joinCols)

	createCols := make([]string, len(joinCols))
	for i, c := range joinCols {
		createCols[i] = c + " INTEGER"
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", actual, strings.Join(createCols, ", "))
	if err := e.ch.Exec(sqlchan.SPJJoin, createSQL, e.label); err != nil {
		return err
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s SELECT %s FROM %s AS X JOIN %s AS Y ON %s",
		actual, strings.Join(selectList, ", "), e.tableName(op.Left), e.tableName(op.Right), strings.Join(conditions, " AND "),
	)
	return e.ch.Exec(sqlchan.SPJJoin, insertSQL, e.label)
}

func (e *RuleEvaluator) execProject(op plan.Project, from datalog.Symbol) error {
	cols := e.idxList(from)
	columnList := make([]string, len(op.ProjectionInputs))
	for i, in := range op.ProjectionInputs {
		switch v := in.(type) {
		case plan.Column:
			columnList[i] = cols[v.Index]
		case plan.Value:
			columnList[i] = sqlLiteral(v.Constant)
		}
	}

	target := delta.Prefix + string(op.Symbol)
	sql := fmt.Sprintf(
		"INSERT INTO %s SELECT DISTINCT %s FROM %s",
		target, strings.Join(columnList, ", "), e.tableName(from),
	)
	return e.ch.Exec(sqlchan.SPJProject, sql, e.label)
}

func (e *RuleEvaluator) cleanup() error {
	seen := make(map[string]bool)
	var drops []string
	for _, t := range e.tempTables {
		if !seen[t] {
			seen[t] = true
			drops = append(drops, t)
		}
	}
	sort.Strings(drops)
	for _, t := range drops {
		if err := e.ch.Exec(sqlchan.SPJClear, fmt.Sprintf("DROP TABLE %s", t), e.label); err != nil {
			return err
		}
	}
	return nil
}

// sqlLiteral renders a Datalog constant as a SQL literal. Strings are
// single-quoted (internal quotes doubled); booleans render as 1/0 since
// the dialect's columns are declared INTEGER; everything else uses its
// default formatting.
func sqlLiteral(v datalog.TypedValue) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}
