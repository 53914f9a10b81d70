// Package report renders filterable summary views over the persisted ledger.
// It is a read-only consumer: no writes, no business logic.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Filter selects a slice of the ledger. Zero values mean "all".
type Filter struct {
	Year  int
	Month time.Month
	// Services restricts to the named providers (case-insensitive).
	Services []string
}

// TrendPoint is one bucket of the spending trend.
type TrendPoint struct {
	Label  string
	Amount float64
}

// Summary holds the aggregates displayed above the transaction log.
type Summary struct {
	Total     float64
	Count     int
	ByService map[string]float64
	// Trend is bucketed per day when the filter names a month, per month
	// otherwise, in chronological order.
	Trend []TrendPoint
}

// Apply returns the facts matching the filter, preserving input order.
func Apply(facts []api.ExpenseFact, f Filter) []api.ExpenseFact {
	services := make(map[string]bool, len(f.Services))
	for _, s := range f.Services {
		services[strings.ToLower(s)] = true
	}

	out := []api.ExpenseFact{}
	for _, fact := range facts {
		if f.Year != 0 && fact.TransactionDate.Year() != f.Year {
			continue
		}
		if f.Month != 0 && fact.TransactionDate.Month() != f.Month {
			continue
		}
		if len(services) > 0 && !services[strings.ToLower(fact.ServiceName)] {
			continue
		}
		out = append(out, fact)
	}
	return out
}

// Summarize aggregates the given facts. byDay selects daily trend buckets.
func Summarize(facts []api.ExpenseFact, byDay bool) Summary {
	s := Summary{
		Count:     len(facts),
		ByService: map[string]float64{},
	}

	type bucket struct {
		label  string
		amount float64
	}
	// Keyed by the truncated date, not the label: "02 Jan" repeats across
	// years and must not merge them.
	buckets := map[time.Time]*bucket{}

	for _, f := range facts {
		s.Total += f.Amount
		s.ByService[f.ServiceName] += f.Amount

		var key time.Time
		var label string
		if byDay {
			y, mo, d := f.TransactionDate.Date()
			key = time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
			label = key.Format("02 Jan")
		} else {
			key = time.Date(f.TransactionDate.Year(), f.TransactionDate.Month(), 1, 0, 0, 0, 0, time.UTC)
			label = key.Format("Jan 2006")
		}
		if b, ok := buckets[key]; ok {
			b.amount += f.Amount
		} else {
			buckets[key] = &bucket{label: label, amount: f.Amount}
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	for _, k := range keys {
		s.Trend = append(s.Trend, TrendPoint{Label: buckets[k].label, Amount: buckets[k].amount})
	}

	return s
}

// Render writes the summary block and the transaction log for the filtered
// ledger, newest first.
func Render(w io.Writer, facts []api.ExpenseFact, f Filter) error {
	filtered := Apply(facts, f)
	summary := Summarize(filtered, f.Month != 0)

	scope := "all time"
	switch {
	case f.Year != 0 && f.Month != 0:
		scope = fmt.Sprintf("%s %d", f.Month, f.Year)
	case f.Year != 0:
		scope = fmt.Sprintf("%d", f.Year)
	}

	fmt.Fprintf(w, "\n=== Expense Summary (%s) ===\n", scope)
	fmt.Fprintf(w, "Transactions: %d\n", summary.Count)
	fmt.Fprintf(w, "Total spend:  %.2f\n", summary.Total)

	if len(summary.ByService) > 0 {
		fmt.Fprintln(w, "\nBy service:")
		names := make([]string, 0, len(summary.ByService))
		for name := range summary.ByService {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			amount := summary.ByService[name]
			share := 0.0
			if summary.Total > 0 {
				share = amount / summary.Total * 100
			}
			fmt.Fprintf(w, "  %-10s %10.2f  (%.1f%%)\n", name, amount, share)
		}
	}

	if len(summary.Trend) > 1 {
		fmt.Fprintln(w, "\nTrend:")
		for _, p := range summary.Trend {
			fmt.Fprintf(w, "  %-10s %10.2f\n", p.Label, p.Amount)
		}
	}

	if len(filtered) == 0 {
		fmt.Fprintln(w, "\nNo expenses recorded for this selection.")
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSERVICE\tAMOUNT\tCURRENCY\tDESCRIPTION")
	for _, fact := range filtered {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n",
			fact.TransactionDate.Format(api.DateLayout),
			fact.ServiceName,
			fact.Amount,
			fact.Currency,
			fact.EmailSubject,
		)
	}
	return tw.Flush()
}
