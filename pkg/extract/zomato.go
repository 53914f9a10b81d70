package extract

import (
	"regexp"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// zomatoTotal anchors on "Total paid - ₹860.42".
var zomatoTotal = regexp.MustCompile(`(?i)Total paid\s*-\s*₹?\s*([\d,]+\.?\d*)`)

// Zomato extracts food-delivery receipts. No date appears in the body.
type Zomato struct{}

// Parse implements api.Extractor.
func (Zomato) Parse(body, subject string) api.Receipt {
	text := PlainText(body)

	r := api.Receipt{
		Service:  "Zomato",
		Currency: api.DefaultCurrency,
	}

	if m := zomatoTotal.FindStringSubmatch(text); m != nil {
		if amount, ok := parseAmount(m[1]); ok {
			r.Amount = amount
			r.AmountFound = true
		}
	}

	return r
}
