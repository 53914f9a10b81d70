// Package api defines the core interfaces and data structures for spendsync.
package api

import (
	"context"
	"time"
)

// DefaultCurrency is the currency code recorded when a receipt does not
// identify one.
const DefaultCurrency = "INR"

// DateLayout is the storage format for transaction dates.
const DateLayout = "2006-01-02"

// EpochDate returns the watermark floor: the date assumed for a provider that
// has never been synced, and the final fallback for a message with no usable
// date anywhere.
func EpochDate() time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// ExpenseFact is the canonical persisted expense record. Exactly one fact
// exists per distinct EmailID; facts are never updated or deleted.
type ExpenseFact struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`
	// ServiceName identifies the provider, e.g. "Uber". Free text at the
	// storage layer.
	ServiceName string `json:"service_name"`
	// EmailSubject is the decoded subject line, descriptive only.
	EmailSubject string  `json:"email_subject"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	// TransactionDate is a calendar date; time-of-day is always midnight UTC.
	TransactionDate time.Time `json:"transaction_date"`
	// EmailID is the mailbox message identifier and the sole dedup key.
	EmailID string `json:"email_id"`
}

// Receipt is an extractor's candidate output before it is merged with message
// metadata into an ExpenseFact.
type Receipt struct {
	Service string
	Amount  float64
	// AmountFound is false when no anchor phrase matched and Amount is the
	// 0.0 sentinel. Persisted output is unchanged either way; callers use
	// this to log the data-quality miss.
	AmountFound bool
	Currency    string
	// Date is zero when the extractor could not determine one; callers fall
	// back to the message header date.
	Date time.Time
}

// Message is a decoded mailbox message.
type Message struct {
	// ID is the Message-ID header value.
	ID      string
	From    string
	Subject string
	// Date is the header date, zero if the header was absent or unparseable.
	Date time.Time
	// Body is the HTML part when the message is multipart, otherwise the
	// single body.
	Body string
}

// Query selects messages from a known sender received at or after Since.
// Since is inclusive: the message that set a watermark is re-matched on the
// next run, and dedup falls on EmailID uniqueness in the store.
type Query struct {
	Sender string
	Since  time.Time
}

// Provider is one configured transaction-email source.
type Provider struct {
	// Key selects the extractor and namespaces the watermark, e.g. "uber".
	Key string
	// Sender is the provider's known from-address.
	Sender string
}

// Mailbox is the protocol boundary to a remote or local mail source. A
// mailbox is a scoped resource: Connect at the start of a pass, Close at the
// end or on error.
type Mailbox interface {
	Connect(ctx context.Context) error
	// Search returns the identifiers of all messages matching the query.
	Search(ctx context.Context, q Query) ([]string, error)
	// Fetch retrieves the full raw RFC 822 message for an identifier.
	Fetch(ctx context.Context, id string) ([]byte, error)
	Close() error
}

// Store is the durable ledger of expense facts.
type Store interface {
	// EnsureSchema creates the expense table if absent. Safe to call
	// repeatedly and concurrently.
	EnsureSchema(ctx context.Context) error
	// InsertIfAbsent persists a fact and reports whether a new row was
	// created. A duplicate EmailID is (false, nil). A storage error is
	// (false, err): logged by the store, returned so callers can count the
	// failure, never fatal to the pass.
	InsertIfAbsent(ctx context.Context, fact ExpenseFact) (bool, error)
	// ListAll returns every fact ordered by transaction date descending. A
	// missing table yields an empty slice, not an error.
	ListAll(ctx context.Context) ([]ExpenseFact, error)
	// LatestDateFor returns the most recent transaction date among facts
	// whose service name starts with the given prefix (case-insensitive),
	// or EpochDate when none match or the lookup fails.
	LatestDateFor(ctx context.Context, serviceKeyPrefix string) time.Time
	Close() error
}

// Extractor converts raw message content into a receipt candidate. Parse
// never fails: an unmatched template yields a zero-amount receipt with
// AmountFound unset.
type Extractor interface {
	Parse(body, subject string) Receipt
}
