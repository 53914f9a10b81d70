package extract

import (
	"regexp"
	"time"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Swiggy receipts label the amount either "Order Total" or, for bank-settled
// orders, "Paid Via Bank".
var (
	swiggyTotal = regexp.MustCompile(`(?i)(?:Order Total|Paid Via Bank)\s*[:\-]?\s*₹?\s*([\d,]+\.?\d*)`)
	swiggyDate  = regexp.MustCompile(`Order placed at:\s*\w+,\s*(\w+\s+\d{1,2},\s+\d{4})`)
)

// Swiggy extracts food-delivery receipts.
type Swiggy struct{}

// Parse implements api.Extractor. The body sometimes carries an order date
// ("Order placed at: Sunday, December 14, 2025"); a parse failure is
// swallowed and the date omitted so callers fall back to the header date.
func (Swiggy) Parse(body, subject string) api.Receipt {
	text := PlainText(body)

	r := api.Receipt{
		Service:  "Swiggy",
		Currency: api.DefaultCurrency,
	}

	if m := swiggyTotal.FindStringSubmatch(text); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			r.Amount = amount
			r.AmountFound = true
		}
	}

	if m := swiggyDate.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("January 2, 2006", m[1]); err == nil {
			r.Date = t
		}
	}

	return r
}
