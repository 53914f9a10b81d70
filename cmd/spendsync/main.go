// Command spendsync ingests transactional e-receipt emails into a local
// SQLite ledger and renders summary views over it.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendsync/pkg/logging"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "spendsync",
	Short: "Sync e-receipt emails into a local expense ledger",
	Long: `spendsync pulls ride-hailing and food-delivery receipts (Uber,
Swiggy, Zomato) from a mailbox, extracts amounts and dates from the email
bodies and stores them idempotently in a local SQLite file.

Each run is one incremental pass: per provider it resumes from the most
recent transaction date already persisted, so re-runs are cheap and safe.

Example:
  spendsync sync
  spendsync report --year 2025 --month 12
  spendsync status`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := logging.FromEnv()
		if debug {
			cfg.Level = slog.LevelDebug
		}
		logging.Setup(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
}

func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
