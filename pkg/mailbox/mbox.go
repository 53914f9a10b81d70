package mailbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-mbox"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Mbox reads receipts from a local mbox export. It exists for offline runs
// and for inspecting a mail dump through the normal pipeline instead of a
// live account.
type Mbox struct {
	path   string
	logger *slog.Logger
	loaded bool
	msgs   []mboxEntry
}

type mboxEntry struct {
	from string
	date time.Time
	raw  []byte
}

// NewMbox creates a mailbox over the mbox file at path.
func NewMbox(path string, logger *slog.Logger) *Mbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mbox{path: path, logger: logger}
}

// Connect loads the whole file into memory. A missing or unreadable file is
// a connection-level failure, mirroring a failed IMAP dial. Individual
// undecodable messages are skipped with a warning.
func (m *Mbox) Connect(ctx context.Context) error {
	f, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("opening mbox %s: %w", m.path, err)
	}
	defer f.Close()

	r := mbox.NewReader(f)
	m.msgs = nil
	for i := 0; ; i++ {
		mr, err := r.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading mbox %s: %w", m.path, err)
		}

		raw, err := io.ReadAll(mr)
		if err != nil {
			return fmt.Errorf("reading mbox message %d: %w", i, err)
		}

		decoded, err := Decode(raw)
		if err != nil {
			m.logger.Warn("skipping undecodable mbox message", "index", i, "error", err)
			continue
		}

		m.msgs = append(m.msgs, mboxEntry{
			from: decoded.From,
			date: decoded.Date,
			raw:  raw,
		})
	}

	m.loaded = true
	m.logger.Debug("mbox loaded", "path", m.path, "messages", len(m.msgs))
	return nil
}

// Search filters the loaded messages by sender substring and header date.
// The date filter compares calendar dates, not instants: the watermark is a
// calendar date taken from each message's own zone, so a "10 Mar 02:00 +0530"
// message must still match a 10 Mar watermark even though its UTC instant
// falls on 9 Mar. Messages without a header date are included: the date-only
// watermark cannot prove them already seen, and dedup catches re-reads.
func (m *Mbox) Search(ctx context.Context, q api.Query) ([]string, error) {
	if !m.loaded {
		return nil, fmt.Errorf("mbox not loaded")
	}

	floor := q.Since.Truncate(24 * time.Hour)
	var ids []string
	for i, e := range m.msgs {
		if !strings.Contains(strings.ToLower(e.from), strings.ToLower(q.Sender)) {
			continue
		}
		if !e.date.IsZero() && calendarDay(e.date).Before(floor) {
			continue
		}
		ids = append(ids, strconv.Itoa(i))
	}
	return ids, nil
}

// calendarDay is the message's date in its own zone, as midnight UTC.
func calendarDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// Fetch returns the raw message at the given index id.
func (m *Mbox) Fetch(ctx context.Context, id string) ([]byte, error) {
	i, err := strconv.Atoi(id)
	if err != nil || i < 0 || i >= len(m.msgs) {
		return nil, fmt.Errorf("unknown mbox message id %q", id)
	}
	return m.msgs[i].raw, nil
}

// Close releases the loaded messages.
func (m *Mbox) Close() error {
	m.loaded = false
	m.msgs = nil
	return nil
}
