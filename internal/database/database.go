// Package database opens the project store and applies its schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB is a pooled store handle plus the dialect it speaks. It is safe for
// concurrent use.
type DB struct {
	*sql.DB
	Dialect Dialect
	url     string
}

// Target is a parsed DATABASE_URL.
type Target struct {
	Dialect Dialect
	DSN     string
}

// ParseURL resolves a DATABASE_URL into a driver DSN. Accepted forms are
// sqlite:<path>, sqlite://<path>, postgres://... and postgresql://...
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("database url is required")
	}
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		if _, err := url.Parse(raw); err != nil {
			return Target{}, fmt.Errorf("parse postgres url: %w", err)
		}
		return Target{Dialect: Postgres, DSN: raw}, nil
	case strings.HasPrefix(raw, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite:"), "//")
		if path == "" {
			return Target{}, fmt.Errorf("sqlite path is required")
		}
		return Target{Dialect: SQLite, DSN: sqliteDSN(path)}, nil
	default:
		return Target{}, fmt.Errorf("unsupported database url scheme: %q", raw)
	}
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
}

// Open connects to the store named by rawURL and verifies the connection.
func Open(ctx context.Context, rawURL string, maxOpenConns int) (*DB, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(target.Dialect.DriverName, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", target.Dialect.Name, err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxOpenConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", target.Dialect.Name, err)
	}
	return &DB{DB: sqlDB, Dialect: target.Dialect, url: rawURL}, nil
}
