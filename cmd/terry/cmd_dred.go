package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"terry/internal/datalog"
	"terry/internal/dred"
)

var (
	dredIn  string
	dredOut string
)

var dredCmd = &cobra.Command{
	Use:   "dred",
	Short: "Run the DRed sibling rewriters over a program file, standalone from the driver",
}

var dredOverdeletionCmd = &cobra.Command{
	Use:   "overdeletion",
	Short: "Write the overdeletion-rewritten program",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDred(dred.MakeOverdeletionProgram)
	},
}

var dredRederivationCmd = &cobra.Command{
	Use:   "rederivation",
	Short: "Write the rederivation-rewritten program",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDred(dred.MakeRederivationProgram)
	},
}

func init() {
	for _, c := range []*cobra.Command{dredOverdeletionCmd, dredRederivationCmd} {
		c.Flags().StringVar(&dredIn, "in", "", "input program file (required)")
		c.Flags().StringVar(&dredOut, "out", "", "output program file (required)")
		_ = c.MarkFlagRequired("in")
		_ = c.MarkFlagRequired("out")
	}
}

func runDred(rewrite func(datalog.Program) datalog.Program) error {
	program, err := datalog.LoadProgramFile(dredIn)
	if err != nil {
		return err
	}

	rewritten := rewrite(program)

	if err := datalog.SaveProgramFile(rewritten, dredOut); err != nil {
		return fmt.Errorf("write %s: %w", dredOut, err)
	}

	logger.Info("rewrote program",
		zap.String("in", dredIn),
		zap.String("out", dredOut),
		zap.Int("input_rules", program.Len()),
		zap.Int("output_rules", rewritten.Len()),
	)
	return nil
}
