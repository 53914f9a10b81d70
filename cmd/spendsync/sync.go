package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendsync/pkg/config"
	"github.com/ArionMiles/spendsync/pkg/mailbox"
	"github.com/ArionMiles/spendsync/pkg/orchestrator"
	"github.com/ArionMiles/spendsync/pkg/store/sqlite"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one incremental sync pass",
	Long: `Run one incremental sync pass across all configured providers.

For each provider this computes the watermark (latest persisted transaction
date), searches the mailbox for newer messages from the provider's sender,
extracts an expense from each and persists it. Duplicate messages are
silently skipped; a connection failure aborts the pass.

Example:
  spendsync sync
  MAILBOX_BACKEND=mbox MBOX_PATH=export.mbox spendsync sync`,
	Run: runSync,
}

func runSync(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(), "invalid configuration")

	logger := slog.Default()

	store, err := sqlite.New(cfg.DBPath, logger.With("component", "store"))
	exitOnError(err, "failed to open ledger")
	defer store.Close()

	mbox, err := mailbox.New(cfg, logger.With("component", "mailbox"))
	exitOnError(err, "failed to create mailbox")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	syncer := orchestrator.New(store, mbox, nil, cfg.Providers, logger.With("component", "sync"))
	res, err := syncer.Run(ctx)
	if err != nil {
		slog.Error("sync pass failed", "error", err)
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== Sync Complete ===")
	fmt.Printf("Messages scanned: %d\n", res.Scanned)
	fmt.Printf("New expenses:     %d\n", res.Ingested)
	fmt.Printf("Duplicates:       %d\n", res.Duplicates)
	fmt.Printf("Skipped:          %d\n", res.Skipped)
	if res.Failed > 0 {
		fmt.Printf("Write failures:   %d (will be retried next run, check logs)\n", res.Failed)
	}
	if res.Misses > 0 {
		fmt.Printf("Amount misses:    %d (recorded with amount 0.00, check logs)\n", res.Misses)
	}
}
