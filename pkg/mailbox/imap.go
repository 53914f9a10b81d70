package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// IMAP reads receipts from a remote mailbox over IMAP with password
// authentication. It is the primary backend.
type IMAP struct {
	addr     string
	username string
	password string
	logger   *slog.Logger
	client   *imapclient.Client
}

// NewIMAP creates an IMAP mailbox for the given host:port endpoint.
func NewIMAP(addr, username, password string, logger *slog.Logger) *IMAP {
	if logger == nil {
		logger = slog.Default()
	}
	return &IMAP{
		addr:     addr,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Connect dials the endpoint over TLS, authenticates and selects the inbox.
// Any failure here is connection-level: the caller aborts the whole pass.
func (m *IMAP) Connect(ctx context.Context) error {
	c, err := imapclient.DialTLS(m.addr, &imapclient.Options{
		WordDecoder: &mime.WordDecoder{CharsetReader: charset.Reader},
	})
	if err != nil {
		return fmt.Errorf("dialing %s: %w", m.addr, err)
	}

	if err := c.Login(m.username, m.password).Wait(); err != nil {
		c.Close()
		return fmt.Errorf("authenticating as %s: %w", m.username, err)
	}

	if _, err := c.Select("INBOX", nil).Wait(); err != nil {
		c.Close()
		return fmt.Errorf("selecting inbox: %w", err)
	}

	m.logger.Debug("imap connected", "addr", m.addr, "user", m.username)
	m.client = c
	return nil
}

// Search returns the UIDs of messages from the query's sender received at or
// after the query date. go-imap formats the SINCE date on the wire
// (DD-Mon-YYYY); SINCE is inclusive by day.
func (m *IMAP) Search(ctx context.Context, q api.Query) ([]string, error) {
	if m.client == nil {
		return nil, fmt.Errorf("imap mailbox not connected")
	}

	criteria := &imap.SearchCriteria{
		Since: q.Since,
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: q.Sender},
		},
	}

	data, err := m.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages from %s: %w", q.Sender, err)
	}

	uids := data.AllUIDs()
	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids, nil
}

// Fetch retrieves the full raw message for a UID.
func (m *IMAP) Fetch(ctx context.Context, id string) ([]byte, error) {
	if m.client == nil {
		return nil, fmt.Errorf("imap mailbox not connected")
	}

	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message uid %q: %w", id, err)
	}

	bodySection := &imap.FetchItemBodySection{}
	msgs, err := m.client.Fetch(imap.UIDSetNum(imap.UID(n)), &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("message %s not found", id)
	}

	raw := msgs[0].FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message %s has no body section", id)
	}
	return raw, nil
}

// Close logs out and releases the connection. Safe to call when never
// connected.
func (m *IMAP) Close() error {
	if m.client == nil {
		return nil
	}
	c := m.client
	m.client = nil

	if err := c.Logout().Wait(); err != nil {
		c.Close()
		return fmt.Errorf("logging out: %w", err)
	}
	return c.Close()
}
