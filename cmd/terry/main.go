// Command terry is the CLI entrypoint: load an EDB fact file, poll a
// Datalog program to a fixed point, or run the DRed sibling rewriters
// standalone. Subcommands live in the sibling cmd_*.go files.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"terry/internal/config"
	"terry/internal/terrylog"
)

var (
	verbose    bool
	configPath string
	logger     *zap.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "terry",
	Short: "Terry - a Datalog-to-SQL semi-naive evaluation engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		terrylog.Configure(cfg.Logging.Dir, cfg.LogLevel())

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		terrylog.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "terry.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().DurationVar(&statementTimeoutOverride, "statement-timeout", 0, "override the configured SQL statement timeout (0 = use config)")

	rootCmd.AddCommand(pollCmd, dredCmd, loadCmd)
	dredCmd.AddCommand(dredOverdeletionCmd, dredRederivationCmd)
}

// statementTimeoutOverride holds the --statement-timeout flag value. No
// subcommand reads it, so it has no effect on statement execution.
var statementTimeoutOverride time.Duration

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
