package sqlchan

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"terry/internal/terryerr"
	"terry/internal/terrylog"
)

// Dialect selects which driver backs a Channel. Both speak the same
// dialect used throughout this engine (CREATE TABLE / INSERT ... SELECT /
// EXCEPT / DROP / ALTER TABLE RENAME); the choice only affects whether cgo
// is required.
type Dialect string

const (
	// DialectSQLite uses github.com/mattn/go-sqlite3 (cgo).
	DialectSQLite Dialect = "sqlite3"
	// DialectSQLiteModernc uses modernc.org/sqlite (pure Go, no cgo).
	DialectSQLiteModernc Dialect = "sqlite"
)

// StatementTrace is one row of the benchmark trace: (test_run, iter,
// tag_name, elapsed_ms, rule_label).
type StatementTrace struct {
	TestRun   int
	Iter      int
	Tag       string
	ElapsedMS int64
	RuleLabel string
}

// Channel wraps a *sql.DB and presents execute/commit/close plus
// profiling, per spec.md §4.H and §6.
type Channel struct {
	db         *sql.DB
	testRun    int
	iter       int
	statements []StatementTrace

	// SessionID namespaces rule-local scratch tables so that two Channel
	// instances sharing a database file never collide on a temp table
	// name, per SPEC_FULL.md's concurrency notes.
	SessionID string
}

// Open opens a Channel against dsn using the given dialect. The
// connection pool is capped at one connection: semi-naive evaluation
// requires every statement on a session to serialize, per spec.md §5.
func Open(dialect Dialect, dsn string) (*Channel, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, terryerr.NewSQLError(fmt.Sprintf("open %s", dsn), err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Channel{db: db, iter: -1, SessionID: uuid.NewString()[:8]}, nil
}

// WithTestRun sets the test_run id recorded in trace rows.
func (c *Channel) WithTestRun(testRun int) *Channel {
	c.testRun = testRun
	return c
}

// Execute runs sqlText, tagged for the benchmark trace, optionally
// labeled with the serialized rule that produced it.
func (c *Channel) Execute(tag Tag, sqlText string, ruleLabel string) (*sql.Rows, error) {
	start := time.Now()
	rows, err := c.db.Query(sqlText)
	elapsed := time.Since(start)
	c.record(tag, elapsed, ruleLabel)
	if err != nil {
		return nil, terryerr.NewSQLError(sqlText, err)
	}
	return rows, nil
}

// Exec runs sqlText for its side effect only (no rows), tagged the same
// way as Execute.
func (c *Channel) Exec(tag Tag, sqlText string, ruleLabel string) error {
	start := time.Now()
	_, err := c.db.Exec(sqlText)
	elapsed := time.Since(start)
	c.record(tag, elapsed, ruleLabel)
	if err != nil {
		return terryerr.NewSQLError(sqlText, err)
	}
	return nil
}

func (c *Channel) record(tag Tag, elapsed time.Duration, ruleLabel string) {
	c.statements = append(c.statements, StatementTrace{
		TestRun:   c.testRun,
		Iter:      c.iter,
		Tag:       tag.String(),
		ElapsedMS: elapsed.Milliseconds(),
		RuleLabel: ruleLabel,
	})
	terrylog.Get(terrylog.CategorySQL).Debug("iter=%d tag=%s rule=%q took %s", c.iter, tag.String(), ruleLabel, elapsed)
}

// IncrementIter bumps the iteration counter used in trace rows.
func (c *Channel) IncrementIter() {
	c.iter++
}

// Commit is a no-op placeholder for API parity with the reference
// implementation's profiler: database/sql auto-commits each Exec/Query
// outside an explicit transaction, so there is nothing additional to do
// here. No component of this module calls it.
func (c *Channel) Commit() error {
	return nil
}

// Close closes the underlying connection.
func (c *Channel) Close() error {
	if err := c.db.Close(); err != nil {
		return terryerr.NewSQLError("close", err)
	}
	return nil
}

// DumpBenchmark returns the accumulated trace rows, per spec.md §6.
func (c *Channel) DumpBenchmark() []StatementTrace {
	return c.statements
}

// DB exposes the underlying *sql.DB for callers that need direct access
// to it. The driver's fact-count query goes through Execute instead.
func (c *Channel) DB() *sql.DB {
	return c.db
}
