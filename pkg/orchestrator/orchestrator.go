// Package orchestrator drives one incremental synchronization pass: compute
// the per-provider watermark, fetch matching mail, extract expense facts and
// persist them idempotently.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/ArionMiles/spendsync/pkg/api"
	"github.com/ArionMiles/spendsync/pkg/extract"
	"github.com/ArionMiles/spendsync/pkg/mailbox"
)

// Result summarizes a sync pass. A pass reports this single outcome; no
// per-record detail reaches the caller beyond logs.
type Result struct {
	// Scanned counts messages matched by the watermark queries.
	Scanned int
	// Ingested counts newly persisted facts.
	Ingested int
	// Duplicates counts messages already in the ledger.
	Duplicates int
	// Skipped counts messages dropped for fetch/decode failures.
	Skipped int
	// Failed counts facts whose ledger write errored; they are retried by
	// the next pass since the watermark never advanced past them.
	Failed int
	// Misses counts persisted facts whose amount anchor never matched.
	Misses int
}

// Syncer runs sync passes against one mailbox and one store.
type Syncer struct {
	store     api.Store
	mbox      api.Mailbox
	registry  *extract.Registry
	providers []api.Provider
	logger    *slog.Logger
}

// New creates a Syncer. A nil registry gets the default provider set.
func New(store api.Store, mbox api.Mailbox, registry *extract.Registry, providers []api.Provider, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = extract.Default()
	}
	return &Syncer{
		store:     store,
		mbox:      mbox,
		registry:  registry,
		providers: providers,
		logger:    logger,
	}
}

// Run executes one full pass, providers strictly sequential, messages within
// a provider strictly sequential. Connection-level failures abort the pass
// and are reported once. Failures on an individual message are logged and
// skipped; the rest of the pass continues.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var res Result

	if err := s.store.EnsureSchema(ctx); err != nil {
		s.logger.Warn("schema init failed, continuing", "error", err)
	}

	if err := s.mbox.Connect(ctx); err != nil {
		return res, fmt.Errorf("connecting to mailbox: %w", err)
	}
	defer func() {
		if err := s.mbox.Close(); err != nil {
			s.logger.Warn("closing mailbox", "error", err)
		}
	}()

	for _, p := range s.providers {
		if err := s.syncProvider(ctx, p, &res); err != nil {
			return res, err
		}
	}

	s.logger.Info("sync pass complete",
		"scanned", res.Scanned,
		"ingested", res.Ingested,
		"duplicates", res.Duplicates,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"misses", res.Misses,
	)
	return res, nil
}

func (s *Syncer) syncProvider(ctx context.Context, p api.Provider, res *Result) error {
	logger := s.logger.With("provider", p.Key)

	extractor := s.registry.Lookup(p.Key)
	if extractor == nil {
		logger.Warn("no extractor registered, skipping provider")
		return nil
	}

	since := s.store.LatestDateFor(ctx, p.Key)
	logger.Info("scanning provider", "sender", p.Sender, "since", since.Format("02-Jan-2006"))

	ids, err := s.mbox.Search(ctx, api.Query{Sender: p.Sender, Since: since})
	if err != nil {
		return fmt.Errorf("searching %s messages: %w", p.Key, err)
	}
	logger.Info("found messages", "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Scanned++
		if err := s.processMessage(ctx, p, extractor, id, res); err != nil {
			logger.Warn("skipping message", "id", id, "error", err)
			res.Skipped++
		}
	}
	return nil
}

// processMessage handles a single message end to end. Every error return is
// isolated by the caller: one malformed message must never abort the pass.
func (s *Syncer) processMessage(ctx context.Context, p api.Provider, extractor api.Extractor, id string, res *Result) error {
	var raw []byte
	err := retry.Do(
		func() error {
			var err error
			raw, err = s.mbox.Fetch(ctx, id)
			return err
		},
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return fmt.Errorf("fetching: %w", err)
	}

	msg, err := mailbox.Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	if msg.Body == "" {
		return errors.New("no decodable body")
	}
	if msg.ID == "" {
		// Without a message id there is no dedup key to persist under.
		return errors.New("missing message id")
	}

	receipt := extractor.Parse(msg.Body, msg.Subject)
	if !receipt.AmountFound {
		s.logger.Warn("no amount anchor matched",
			"provider", p.Key,
			"subject", msg.Subject,
			"id", msg.ID,
		)
		res.Misses++
	}

	date := receipt.Date
	if date.IsZero() {
		date = msg.Date
	}
	if date.IsZero() {
		date = api.EpochDate()
	}

	fact := api.ExpenseFact{
		ServiceName:     receipt.Service,
		EmailSubject:    msg.Subject,
		Amount:          receipt.Amount,
		Currency:        receipt.Currency,
		TransactionDate: date,
		EmailID:         msg.ID,
	}

	created, err := s.store.InsertIfAbsent(ctx, fact)
	switch {
	case err != nil:
		// Already logged by the store; count it so the summary does not
		// disguise a write failure as a duplicate.
		res.Failed++
	case created:
		res.Ingested++
		s.logger.Info("ingested expense",
			"service", fact.ServiceName,
			"date", fact.TransactionDate.Format(api.DateLayout),
			"amount", fact.Amount,
			"currency", fact.Currency,
		)
	default:
		res.Duplicates++
		s.logger.Debug("duplicate expense", "email_id", fact.EmailID)
	}
	return nil
}
