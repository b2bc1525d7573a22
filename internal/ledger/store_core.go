package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"quill/internal/config"
)

// DefaultLeaseTTL applies when no TTL option is given.
const DefaultLeaseTTL = time.Hour

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	now      func() time.Time
	leaseTTL time.Duration
	owner    string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for lease and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLeaseTTL sets how old an in_progress lease must be before it can be taken over.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.leaseTTL = ttl
		}
	}
}

// WithOwner sets the lease owner recorded on acquired leases.
func WithOwner(owner string) Option {
	return func(s *Store) {
		if owner = strings.TrimSpace(owner); owner != "" {
			s.owner = owner
		}
	}
}

const (
	sqliteBusyCode          = 5
	sqliteLockedCode        = 6
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		code := coder.Code() & 0xff
		if code == sqliteBusyCode || code == sqliteLockedCode {
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open connects to the ledger configured in cfg, creating the schema on first use.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("ledger: config is nil")
	}
	opts = append([]Option{WithLeaseTTL(cfg.LeaseTTL())}, opts...)
	return OpenPath(cfg.Ledger.Path, opts...)
}

// OpenPath connects to the ledger database at path.
func OpenPath(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the pragmas below in force for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:       db,
		path:     path,
		now:      time.Now,
		leaseTTL: DefaultLeaseTTL,
		owner:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Owner returns the lease owner id this handle records.
func (s *Store) Owner() string { return s.owner }

// LeaseTTL returns the lease lifetime used by AcquireLease.
func (s *Store) LeaseTTL() time.Duration { return s.leaseTTL }
