package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendsync/pkg/config"
	"github.com/ArionMiles/spendsync/pkg/report"
	"github.com/ArionMiles/spendsync/pkg/store/sqlite"
)

var (
	reportYear     int
	reportMonth    int
	reportServices []string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show filterable expense summaries",
	Long: `Show aggregates and the transaction log from the local ledger.

The view is read-only. Filters narrow by year, month and service.

Example:
  spendsync report
  spendsync report --year 2025
  spendsync report --year 2025 --month 12 --service swiggy --service zomato`,
	Run: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "filter by year")
	reportCmd.Flags().IntVar(&reportMonth, "month", 0, "filter by month (1-12, requires --year)")
	reportCmd.Flags().StringSliceVar(&reportServices, "service", nil, "filter by service name (repeatable)")
}

func runReport(cmd *cobra.Command, args []string) {
	if reportMonth < 0 || reportMonth > 12 {
		exitOnError(fmt.Errorf("month %d out of range", reportMonth), "invalid flags")
	}
	if reportMonth != 0 && reportYear == 0 {
		exitOnError(fmt.Errorf("--month requires --year"), "invalid flags")
	}

	cfg, err := config.Load()
	exitOnError(err, "failed to load configuration")

	store, err := sqlite.New(cfg.DBPath, slog.Default().With("component", "store"))
	exitOnError(err, "failed to open ledger")
	defer store.Close()

	facts, err := store.ListAll(context.Background())
	exitOnError(err, "failed to read ledger")

	f := report.Filter{
		Year:     reportYear,
		Month:    time.Month(reportMonth),
		Services: reportServices,
	}
	exitOnError(report.Render(os.Stdout, facts, f), "failed to render report")
}
