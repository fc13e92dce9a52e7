// Package cli implements the care-monitor commands.
package cli

import (
	"fmt"
	"os"

	"github.com/remember-me/care-monitor/internal/config"
	"github.com/remember-me/care-monitor/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	logLevel string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "care-monitor",
	Short: "Patient care routine monitoring",
	Long:  "Collects care routine events from a bedside device, keeps them in an append-only log and streams them to dashboards.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		logger.Init(cfg.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (default: $LOG_LEVEL or info)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
