// Package config loads spendsync configuration from the environment.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// Mailbox backend names accepted by MAILBOX_BACKEND.
const (
	BackendIMAP  = "imap"
	BackendGmail = "gmail"
	BackendMbox  = "mbox"
)

// Config holds the application configuration loaded from environment
// variables. Nothing in the pipeline reads the environment directly; the
// loaded Config is passed into every constructor.
type Config struct {
	// EmailUser is the IMAP login user.
	EmailUser string `koanf:"EMAIL_USER"`
	// EmailPass is the IMAP login password.
	EmailPass string `koanf:"EMAIL_PASS"`

	// IMAPAddr is the IMAP endpoint as host:port.
	IMAPAddr string `koanf:"IMAP_ADDR"`

	// DBPath is the SQLite ledger file.
	DBPath string `koanf:"DB_PATH"`

	// MailboxBackend selects the mail source: imap, gmail or mbox.
	MailboxBackend string `koanf:"MAILBOX_BACKEND"`

	// MboxPath is the local mbox export read by the mbox backend.
	MboxPath string `koanf:"MBOX_PATH"`

	// GmailClientSecretFile and GmailTokenFile configure the gmail backend's
	// OAuth credentials.
	GmailClientSecretFile string `koanf:"GMAIL_CLIENT_SECRET_FILE"`
	GmailTokenFile        string `koanf:"GMAIL_TOKEN_FILE"`

	// Providers is the fixed set of transaction-email sources. Not loaded
	// from the environment.
	Providers []api.Provider `koanf:"-"`
}

// DefaultProviders returns the supported transaction-email sources.
func DefaultProviders() []api.Provider {
	return []api.Provider{
		{Key: "uber", Sender: "noreply@uber.com"},
		{Key: "swiggy", Sender: "noreply@swiggy.in"},
		{Key: "zomato", Sender: "noreply@zomato.com"},
	}
}

// Load reads configuration from a best-effort .env file and the process
// environment, applying defaults for everything optional.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set by the caller.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := &Config{
		IMAPAddr:              "imap.gmail.com:993",
		DBPath:                "data/expenses.db",
		MailboxBackend:        BackendIMAP,
		GmailClientSecretFile: "data/client_secret.json",
		GmailTokenFile:        "data/token.json",
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Providers = DefaultProviders()
	return cfg, nil
}

// Validate checks that the fields required by the selected mailbox backend
// are present.
func (c *Config) Validate() error {
	switch c.MailboxBackend {
	case BackendIMAP:
		if c.EmailUser == "" {
			return fmt.Errorf("EMAIL_USER environment variable is required")
		}
		if c.EmailPass == "" {
			return fmt.Errorf("EMAIL_PASS environment variable is required")
		}
		if c.IMAPAddr == "" {
			return fmt.Errorf("IMAP_ADDR environment variable is required")
		}
	case BackendGmail:
		if c.GmailClientSecretFile == "" {
			return fmt.Errorf("GMAIL_CLIENT_SECRET_FILE environment variable is required")
		}
		if c.GmailTokenFile == "" {
			return fmt.Errorf("GMAIL_TOKEN_FILE environment variable is required")
		}
	case BackendMbox:
		if c.MboxPath == "" {
			return fmt.Errorf("MBOX_PATH environment variable is required")
		}
	default:
		return fmt.Errorf("unknown mailbox backend %q (expected imap, gmail or mbox)", c.MailboxBackend)
	}

	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH environment variable is required")
	}
	return nil
}
