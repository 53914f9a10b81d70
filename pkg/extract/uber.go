package extract

import (
	"regexp"
	"strings"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// uberTotal anchors on the literal "Total" phrase of Uber ride receipts,
// capturing an optional currency symbol and the following number.
var uberTotal = regexp.MustCompile(`(?i)Total\s*[:\-]?.?\s?([₹$€£]?)\s?([\d,]+\.?\d*)`)

var symbolCurrency = map[string]string{
	"₹": "INR",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// Uber extracts ride receipts. Template parsing is heuristic and best-effort;
// an unmatched receipt yields the zero-amount sentinel, not an error.
type Uber struct{}

// Parse implements api.Extractor. Uber mails carry no reliable transaction
// date in the body, so Date is left zero and callers fall back to the header
// date.
func (Uber) Parse(body, subject string) api.Receipt {
	text := PlainText(body)

	r := api.Receipt{
		Service:  "Uber",
		Currency: api.DefaultCurrency,
	}

	m := uberTotal.FindStringSubmatch(text)
	if m == nil {
		return r
	}

	if amount, ok := parseAmount(m[2]); ok {
		r.Amount = amount
		r.AmountFound = true
	}

	if cur, ok := symbolCurrency[m[1]]; ok {
		r.Currency = cur
	} else if strings.Contains(text, "Rupee") {
		r.Currency = "INR"
	}

	return r
}
