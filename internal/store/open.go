package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhle/taskboard/internal/model"
)

// PostgresPasswordKey is the credential key consulted when a Postgres URL
// carries no password.
const PostgresPasswordKey = "postgres-password"

// PasswordLookup resolves a secret by key, e.g. from the system keyring.
type PasswordLookup func(key string) (string, error)

// OpenOption customizes Open.
type OpenOption func(*openOptions)

type openOptions struct {
	lookup PasswordLookup
}

// WithPasswordLookup supplies the Postgres password when the configured
// URL has none.
func WithPasswordLookup(fn PasswordLookup) OpenOption {
	return func(o *openOptions) {
		o.lookup = fn
	}
}

// Open returns the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg model.DatabaseConfig, opts ...OpenOption) (Store, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Driver {
	case model.DriverSQLite, "":
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil

	case model.DriverPostgres:
		dsn := cfg.URL
		if o.lookup != nil {
			dsn = withPassword(dsn, o.lookup)
		}
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// withPassword fills in a missing password from lookup. Both URL and
// keyword/value connection strings are handled; lookup failures leave the
// DSN untouched so that .pgpass or trust auth can still apply.
func withPassword(dsn string, lookup PasswordLookup) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			return dsn
		}
		if _, ok := u.User.Password(); ok {
			return dsn
		}
		pw, err := lookup(PostgresPasswordKey)
		if err != nil || pw == "" {
			return dsn
		}
		u.User = url.UserPassword(u.User.Username(), pw)
		return u.String()
	}

	for _, field := range strings.Fields(dsn) {
		if strings.HasPrefix(field, "password=") {
			return dsn
		}
	}
	pw, err := lookup(PostgresPasswordKey)
	if err != nil || pw == "" {
		return dsn
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(pw)
	return strings.TrimSpace(dsn) + " password='" + escaped + "'"
}
