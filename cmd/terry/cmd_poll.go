package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"terry/internal/datalog"
	"terry/internal/driver"
	"terry/internal/sqlchan"
)

var (
	pollProgramPath string
	pollTracePath   string
)

var pollCmd = &cobra.Command{
	Use:   "poll PROGRAM_FILE",
	Short: "Materialize a Datalog program to a fixed point against the configured SQL backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoll,
}

func init() {
	pollCmd.Flags().StringVar(&pollTracePath, "trace", "", "write the benchmark statement trace as CSV to this path")
}

func runPoll(cmd *cobra.Command, args []string) error {
	pollProgramPath = args[0]

	program, err := datalog.LoadProgramFile(pollProgramPath)
	if err != nil {
		return err
	}

	schema, err := datalog.NewSchema(program)
	if err != nil {
		return fmt.Errorf("validate program: %w", err)
	}

	dialect := sqlchan.Dialect(cfg.SQL.Dialect)
	ch, err := sqlchan.Open(dialect, cfg.SQL.DSN)
	if err != nil {
		return err
	}
	ch = ch.WithTestRun(cfg.TestRun)

	drv, err := driver.New(ch, program, schema)
	if err != nil {
		return fmt.Errorf("construct driver: %w", err)
	}
	drv = drv.WithIterationCap(cfg.Driver.IterationCap)

	logger.Info("polling program to a fixed point",
		zap.String("program", pollProgramPath),
		zap.String("dsn", cfg.SQL.DSN),
		zap.Int("rules", program.Len()),
	)

	if err := drv.Poll(); err != nil {
		return fmt.Errorf("poll: %w", err)
	}

	trace := ch.DumpBenchmark()
	logger.Info("poll complete", zap.Int("statements", len(trace)))

	if pollTracePath != "" {
		if err := writeTraceCSV(trace, pollTracePath); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
	}
	return nil
}

func writeTraceCSV(trace []sqlchan.StatementTrace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"test_run", "iter", "tag", "elapsed_ms", "rule"}); err != nil {
		return err
	}
	for _, t := range trace {
		row := []string{
			strconv.Itoa(t.TestRun),
			strconv.Itoa(t.Iter),
			t.Tag,
			strconv.FormatInt(t.ElapsedMS, 10),
			t.RuleLabel,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
