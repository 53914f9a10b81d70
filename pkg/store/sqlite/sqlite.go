// Package sqlite implements the expense ledger on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ArionMiles/spendsync/pkg/api"
)

// schema is applied lazily by every entry point; nothing may assume the table
// already exists.
const schema = `
CREATE TABLE IF NOT EXISTS expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    service_name TEXT NOT NULL,
    email_subject TEXT,
    amount REAL,
    currency TEXT,
    transaction_date DATE,
    email_id TEXT UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_expenses_service_date
    ON expenses(service_name, transaction_date);
`

// Store is the SQLite-backed ledger. It satisfies api.Store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New opens (creating if necessary) the ledger at the given path.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureSchema creates the expense table if absent. Safe to call repeatedly
// and concurrently; failures are logged and returned but callers that can
// proceed read-only are expected to ignore them.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		s.logger.Error("failed to initialize schema", "path", s.path, "error", err)
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// InsertIfAbsent persists a fact, reporting whether a new row was created.
// A duplicate email_id is a silent no-op. Storage errors are logged and
// returned; the calling pipeline must never crash on a failed write.
func (s *Store) InsertIfAbsent(ctx context.Context, fact api.ExpenseFact) (bool, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO expenses
		(service_name, email_subject, amount, currency, transaction_date, email_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fact.ServiceName,
		fact.EmailSubject,
		fact.Amount,
		fact.Currency,
		fact.TransactionDate.Format(api.DateLayout),
		fact.EmailID,
	)
	if err != nil {
		s.logger.Error("expense save failed",
			"service", fact.ServiceName,
			"email_id", fact.EmailID,
			"error", err,
		)
		return false, fmt.Errorf("saving expense %s: %w", fact.EmailID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		s.logger.Error("expense save result unavailable", "email_id", fact.EmailID, "error", err)
		return false, fmt.Errorf("saving expense %s: %w", fact.EmailID, err)
	}
	return n > 0, nil
}

// ListAll returns every fact ordered by transaction date descending. If the
// table does not exist yet the result is an empty slice, not an error.
func (s *Store) ListAll(ctx context.Context) ([]api.ExpenseFact, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		s.logger.Warn("schema init failed, attempting read anyway", "error", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service_name, email_subject, amount, currency, transaction_date, email_id
		FROM expenses
		ORDER BY transaction_date DESC`)
	if err != nil {
		if isMissingTable(err) {
			return []api.ExpenseFact{}, nil
		}
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	facts := []api.ExpenseFact{}
	for rows.Next() {
		var (
			f       api.ExpenseFact
			subject sql.NullString
			date    sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.ServiceName, &subject, &f.Amount, &f.Currency, &date, &f.EmailID); err != nil {
			return nil, fmt.Errorf("scanning expense row: %w", err)
		}
		f.EmailSubject = subject.String
		if date.Valid {
			if t, err := time.Parse(api.DateLayout, date.String); err == nil {
				f.TransactionDate = t
			} else {
				s.logger.Error("stored transaction date unparseable", "email_id", f.EmailID, "value", date.String)
			}
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}
	return facts, nil
}

// LatestDateFor returns the maximum transaction date among facts whose
// service name starts with the given prefix. SQLite LIKE is case-insensitive
// for ASCII, which covers "Uber" vs "uber". When no rows match, or on any
// lookup error, the epoch default is returned: it is the watermark floor for
// a never-synced provider. Only persisted rows count, so a message whose
// write failed is re-surfaced by the next pass.
func (s *Store) LatestDateFor(ctx context.Context, serviceKeyPrefix string) time.Time {
	if err := s.EnsureSchema(ctx); err != nil {
		return api.EpochDate()
	}

	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(transaction_date) FROM expenses
		WHERE service_name LIKE ?`,
		serviceKeyPrefix+"%",
	).Scan(&latest)
	if err != nil || !latest.Valid {
		if err != nil {
			s.logger.Error("watermark lookup failed", "service", serviceKeyPrefix, "error", err)
		}
		return api.EpochDate()
	}

	t, err := time.Parse(api.DateLayout, latest.String)
	if err != nil {
		s.logger.Error("stored watermark date unparseable", "service", serviceKeyPrefix, "value", latest.String)
		return api.EpochDate()
	}
	return t
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
