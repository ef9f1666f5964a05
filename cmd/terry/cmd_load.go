package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"terry/internal/loader"
	"terry/internal/sqlchan"
)

var (
	loadFormat string
	loadTable  string
)

var loadCmd = &cobra.Command{
	Use:   "load FACT_FILE",
	Short: "Populate an EDB relation table from a whitespace-pair or N-Triples fact file",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFormat, "format", "whitespace", "fact file format: whitespace|ntriples")
	loadCmd.Flags().StringVar(&loadTable, "table", "", "destination relation table name (required)")
	_ = loadCmd.MarkFlagRequired("table")
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := args[0]

	dialect := sqlchan.Dialect(cfg.SQL.Dialect)
	ch, err := sqlchan.Open(dialect, cfg.SQL.DSN)
	if err != nil {
		return err
	}
	defer ch.Close()

	switch loadFormat {
	case "whitespace":
		pairs, err := loader.LoadWhitespaceTriples(path)
		if err != nil {
			return err
		}
		if err := loader.InsertPairs(ch, loadTable, pairs); err != nil {
			return err
		}
		logger.Info("loaded facts", zap.String("format", loadFormat), zap.String("table", loadTable), zap.Int("rows", len(pairs)))

	case "ntriples":
		interner := loader.NewInterner()
		triples, err := loader.LoadNTriples(path, interner)
		if err != nil {
			return err
		}
		if err := loader.InsertTriples(ch, loadTable, triples); err != nil {
			return err
		}
		logger.Info("loaded facts", zap.String("format", loadFormat), zap.String("table", loadTable), zap.Int("rows", len(triples)))

	default:
		return fmt.Errorf("unknown load format %q (want whitespace or ntriples)", loadFormat)
	}

	return nil
}
