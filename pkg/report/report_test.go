package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ArionMiles/spendsync/pkg/api"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func fact(service string, amount float64, date string) api.ExpenseFact {
	t, err := time.Parse(api.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return api.ExpenseFact{
		ServiceName:     service,
		EmailSubject:    service + " receipt",
		Amount:          amount,
		Currency:        api.DefaultCurrency,
		TransactionDate: t,
		EmailID:         service + "-" + date,
	}
}

var ledger = []api.ExpenseFact{
	fact("Zomato", 860.42, "2025-03-10"),
	fact("Uber", 120.50, "2025-03-08"),
	fact("Swiggy", 590, "2025-02-14"),
	fact("Zomato", 250, "2024-11-02"),
}

func TestApplyYearFilter(t *testing.T) {
	got := Apply(ledger, Filter{Year: 2025})
	if len(got) != 3 {
		t.Fatalf("got %d facts, want 3", len(got))
	}
	for _, f := range got {
		if f.TransactionDate.Year() != 2025 {
			t.Errorf("unexpected year %d for %s", f.TransactionDate.Year(), f.EmailID)
		}
	}
}

func TestApplyYearMonthFilter(t *testing.T) {
	got := Apply(ledger, Filter{Year: 2025, Month: time.March})
	if len(got) != 2 {
		t.Fatalf("got %d facts, want 2", len(got))
	}
}

func TestApplyServiceFilterCaseInsensitive(t *testing.T) {
	got := Apply(ledger, Filter{Services: []string{"zomato"}})
	if len(got) != 2 {
		t.Fatalf("got %d facts, want 2", len(got))
	}
	for _, f := range got {
		if f.ServiceName != "Zomato" {
			t.Errorf("unexpected service %q", f.ServiceName)
		}
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	got := Apply(ledger, Filter{})
	if len(got) != len(ledger) {
		t.Fatalf("got %d facts, want %d", len(got), len(ledger))
	}
	for i := range got {
		if got[i].EmailID != ledger[i].EmailID {
			t.Errorf("position %d: got %s, want %s", i, got[i].EmailID, ledger[i].EmailID)
		}
	}
}

func TestSummarizeTotalsAndByService(t *testing.T) {
	s := Summarize(ledger, false)
	if s.Count != 4 {
		t.Errorf("count: got %d, want 4", s.Count)
	}
	if want := 860.42 + 120.50 + 590 + 250; !approx(s.Total, want) {
		t.Errorf("total: got %v, want %v", s.Total, want)
	}
	if !approx(s.ByService["Zomato"], 860.42+250) {
		t.Errorf("zomato: got %v", s.ByService["Zomato"])
	}
	if s.ByService["Uber"] != 120.50 {
		t.Errorf("uber: got %v", s.ByService["Uber"])
	}
}

func TestSummarizeMonthlyTrendChronological(t *testing.T) {
	s := Summarize(ledger, false)
	want := []string{"Nov 2024", "Feb 2025", "Mar 2025"}
	if len(s.Trend) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(s.Trend), len(want))
	}
	for i, p := range s.Trend {
		if p.Label != want[i] {
			t.Errorf("bucket %d: got %q, want %q", i, p.Label, want[i])
		}
	}
	if !approx(s.Trend[2].Amount, 860.42+120.50) {
		t.Errorf("march bucket: got %v", s.Trend[2].Amount)
	}
}

func TestSummarizeDailyTrend(t *testing.T) {
	march := Apply(ledger, Filter{Year: 2025, Month: time.March})
	s := Summarize(march, true)
	want := []string{"08 Mar", "10 Mar"}
	if len(s.Trend) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(s.Trend), len(want))
	}
	for i, p := range s.Trend {
		if p.Label != want[i] {
			t.Errorf("bucket %d: got %q, want %q", i, p.Label, want[i])
		}
	}
}

func TestSummarizeDailyTrendKeepsYearsApart(t *testing.T) {
	// Same day of month in different years must stay separate buckets.
	facts := []api.ExpenseFact{
		fact("Zomato", 100, "2024-03-10"),
		fact("Zomato", 200, "2025-03-10"),
	}
	s := Summarize(facts, true)
	if len(s.Trend) != 2 {
		t.Fatalf("got %d buckets, want 2", len(s.Trend))
	}
	if !approx(s.Trend[0].Amount, 100) || !approx(s.Trend[1].Amount, 200) {
		t.Errorf("buckets merged across years: %+v", s.Trend)
	}
}

func TestRenderMonthScope(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, ledger, Filter{Year: 2025, Month: time.March}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"=== Expense Summary (March 2025) ===",
		"Transactions: 2",
		"Total spend:  980.92",
		"Zomato",
		"860.42",
		"DATE",
		"2025-03-10",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Swiggy") {
		t.Errorf("february fact leaked into march view:\n%s", out)
	}
}

func TestRenderEmptySelection(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, ledger, Filter{Year: 2019}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No expenses recorded for this selection.") {
		t.Errorf("missing empty-selection notice:\n%s", buf.String())
	}
}
