package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendsync/pkg/api"
	"github.com/ArionMiles/spendsync/pkg/config"
	"github.com/ArionMiles/spendsync/pkg/store/sqlite"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger size and per-provider watermarks",
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	exitOnError(err, "failed to load configuration")

	store, err := sqlite.New(cfg.DBPath, slog.Default().With("component", "store"))
	exitOnError(err, "failed to open ledger")
	defer store.Close()

	ctx := context.Background()
	facts, err := store.ListAll(ctx)
	exitOnError(err, "failed to read ledger")

	fmt.Println("\n=== Ledger Status ===")
	fmt.Printf("Database:  %s\n", store.Path())
	fmt.Printf("Expenses:  %d\n", len(facts))
	fmt.Println("\nWatermarks (next sync resumes from):")
	for _, p := range cfg.Providers {
		since := store.LatestDateFor(ctx, p.Key)
		mark := since.Format(api.DateLayout)
		if since.Equal(api.EpochDate()) {
			mark += " (never synced)"
		}
		fmt.Printf("  %-10s %s\n", p.Key, mark)
	}
	fmt.Println()
}
