package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Gmail reads receipts through the Gmail REST API instead of IMAP. Useful
// for accounts where password logins are disabled and only OAuth works.
type Gmail struct {
	secretFile string
	tokenFile  string
	logger     *slog.Logger
	svc        *gmail.Service
}

// NewGmail creates a Gmail mailbox. secretFile is the OAuth client secret
// JSON; tokenFile must hold a previously obtained token (the sync pass is
// headless and never starts an interactive flow).
func NewGmail(secretFile, tokenFile string, logger *slog.Logger) *Gmail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gmail{
		secretFile: secretFile,
		tokenFile:  tokenFile,
		logger:     logger,
	}
}

// Connect builds the authenticated Gmail service. Missing or invalid
// credentials are connection-level failures.
func (g *Gmail) Connect(ctx context.Context) error {
	b, err := os.ReadFile(g.secretFile)
	if err != nil {
		return fmt.Errorf("reading client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return fmt.Errorf("parsing client secret: %w", err)
	}

	tok, err := tokenFromFile(g.tokenFile)
	if err != nil {
		return fmt.Errorf("loading oauth token from %s: %w", g.tokenFile, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return fmt.Errorf("creating gmail service: %w", err)
	}

	g.logger.Debug("gmail service ready")
	g.svc = svc
	return nil
}

// Search lists message ids from the sender since the watermark. Gmail's
// "after:" operator excludes the named day, so the query uses the day before
// to preserve the inclusive overlap the watermark contract requires.
func (g *Gmail) Search(ctx context.Context, q api.Query) ([]string, error) {
	if g.svc == nil {
		return nil, fmt.Errorf("gmail mailbox not connected")
	}

	after := q.Since.AddDate(0, 0, -1).Format("2006/01/02")
	query := fmt.Sprintf("from:%s after:%s", q.Sender, after)

	resp, err := g.svc.Users.Messages.List("me").Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages from %s: %w", q.Sender, err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// Fetch retrieves the full raw RFC 822 message.
func (g *Gmail) Fetch(ctx context.Context, id string) ([]byte, error) {
	if g.svc == nil {
		return nil, fmt.Errorf("gmail mailbox not connected")
	}

	msg, err := g.svc.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}

	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		return nil, fmt.Errorf("decoding message %s: %w", id, err)
	}
	return raw, nil
}

// Close releases the service. The REST client holds no session state.
func (g *Gmail) Close() error {
	g.svc = nil
	return nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return tok, nil
}
