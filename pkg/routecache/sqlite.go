package routecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a SQLite table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path and
// bootstraps the route cache table.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("routecache: create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("routecache: open sqlite: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("routecache: set busy_timeout: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) bootstrap(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS route_cache (
  key        TEXT PRIMARY KEY,
  snapshot   BLOB NOT NULL,
  updated_at TEXT NOT NULL
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("routecache: bootstrap sqlite: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM route_cache WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("routecache: load: %w", err)
	}
	return data, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO route_cache (key, snapshot, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("routecache: save: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM route_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("routecache: delete: %w", err)
	}
	return nil
}

// Purge removes every snapshot.
func (s *SQLite) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM route_cache`); err != nil {
		return fmt.Errorf("routecache: purge: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Shutdown returns a shutdown hook closing the database.
func (s *SQLite) Shutdown() func(context.Context) error {
	return func(context.Context) error { return s.Close() }
}

var _ Store = (*SQLite)(nil)
