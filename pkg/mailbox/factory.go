package mailbox

import (
	"fmt"
	"log/slog"

	"github.com/ArionMiles/spendsync/pkg/api"
	"github.com/ArionMiles/spendsync/pkg/config"
)

// New builds the mailbox backend selected by the configuration.
func New(cfg *config.Config, logger *slog.Logger) (api.Mailbox, error) {
	switch cfg.MailboxBackend {
	case config.BackendIMAP:
		return NewIMAP(cfg.IMAPAddr, cfg.EmailUser, cfg.EmailPass, logger), nil
	case config.BackendGmail:
		return NewGmail(cfg.GmailClientSecretFile, cfg.GmailTokenFile, logger), nil
	case config.BackendMbox:
		return NewMbox(cfg.MboxPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown mailbox backend %q", cfg.MailboxBackend)
	}
}
