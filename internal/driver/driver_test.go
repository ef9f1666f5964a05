package driver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"terry/internal/datalog"
	"terry/internal/loader"
	"terry/internal/sqlchan"
)

func denseProgram() datalog.Program {
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

func totalRows(t *testing.T, dsn string, table string) int {
	t.Helper()
	ch, err := sqlchan.Open(sqlchan.DialectSQLiteModernc, dsn)
	require.NoError(t, err)
	defer ch.Close()

	rows, err := ch.Execute(sqlchan.FactCount, "SELECT COUNT(*) FROM "+table, "")
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	return n
}

// TestPollLinearChainConverges runs the classic E -> transitive-closure T
// program over a 4-node path graph: T should end up with every (i, j)
// pair where i < j, 6 pairs over {1,2,3,4}.
func TestPollLinearChainConverges(t *testing.T) {
	dsn := t.TempDir() + "/chain.db"

	ch, err := sqlchan.Open(sqlchan.DialectSQLiteModernc, dsn)
	require.NoError(t, err)
	require.NoError(t, loader.InsertPairs(ch, "E", [][2]int{{1, 2}, {2, 3}, {3, 4}}))

	program := denseProgram()
	schema, err := datalog.NewSchema(program)
	require.NoError(t, err)

	drv, err := New(ch, program, schema)
	require.NoError(t, err)
	require.NoError(t, drv.Poll())

	require.Equal(t, 6, totalRows(t, dsn, "T"))
}

// TestPollNoFactsConvergesImmediately exercises the degenerate case: an
// empty EDB relation reaches a fixed point on the very first recursive
// iteration.
func TestPollNoFactsConvergesImmediately(t *testing.T) {
	dsn := t.TempDir() + "/empty.db"

	ch, err := sqlchan.Open(sqlchan.DialectSQLiteModernc, dsn)
	require.NoError(t, err)
	require.NoError(t, ch.Exec(sqlchan.CompilerInit, "CREATE TABLE E (E_0 INTEGER, E_1 INTEGER)", ""))

	program := denseProgram()
	schema, err := datalog.NewSchema(program)
	require.NoError(t, err)

	drv, err := New(ch, program, schema)
	require.NoError(t, err)
	require.NoError(t, drv.Poll())

	require.Equal(t, 0, totalRows(t, dsn, "T"))
}

// TestPollIterationCapExceeded proves the defensive cap actually fires:
// a cap of 0 is exceeded on the first recursive iteration whenever any
// row exists to derive from.
func TestPollIterationCapExceeded(t *testing.T) {
	dsn := t.TempDir() + "/cap.db"

	ch, err := sqlchan.Open(sqlchan.DialectSQLiteModernc, dsn)
	require.NoError(t, err)
	require.NoError(t, loader.InsertPairs(ch, "E", [][2]int{{1, 2}, {2, 3}}))

	program := denseProgram()
	schema, err := datalog.NewSchema(program)
	require.NoError(t, err)

	drv, err := New(ch, program, schema)
	require.NoError(t, err)
	drv = drv.WithIterationCap(0)

	err = drv.Poll()
	require.Error(t, err)
}

// TestCollectRelationsSortsAscending checks the driver's relation
// enumeration is deterministic regardless of rule input order.
func TestCollectRelationsSortsAscending(t *testing.T) {
	relations := collectRelations(denseProgram())
	require.Equal(t, []datalog.Symbol{"E", "T"}, relations)
}

// TestPollAdvancesTraceIteration proves Poll bumps the channel's
// iteration counter: statements recorded before the first bump (fact
// loading, table bootstrap, delta seeding) carry the channel's initial
// iter=-1, every rule-evaluation statement carries a non-negative iter,
// and at least one recursive-phase statement must land past the
// non-recursive pass's iter=0.
func TestPollAdvancesTraceIteration(t *testing.T) {
	dsn := t.TempDir() + "/iter.db"

	ch, err := sqlchan.Open(sqlchan.DialectSQLiteModernc, dsn)
	require.NoError(t, err)
	require.NoError(t, loader.InsertPairs(ch, "E", [][2]int{{1, 2}, {2, 3}, {3, 4}}))

	program := denseProgram()
	schema, err := datalog.NewSchema(program)
	require.NoError(t, err)

	drv, err := New(ch, program, schema)
	require.NoError(t, err)
	require.NoError(t, drv.Poll())

	trace := ch.DumpBenchmark()
	require.NotEmpty(t, trace)

	require.Equal(t, -1, trace[0].Iter)

	maxIter := -1
	for _, row := range trace {
		if strings.HasPrefix(row.Tag, "SPJ_") {
			require.GreaterOrEqual(t, row.Iter, 0)
		}
		if row.Iter > maxIter {
			maxIter = row.Iter
		}
	}
	require.Greater(t, maxIter, 0)
}
