package routecache

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/routeforge/pkg/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Postgres is a Store backed by a PostgreSQL table. It shares the pool
// with the caller, who stays responsible for closing it.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres migrates the route cache schema and returns the store.
// Applied migrations are recorded in migrationsTable.
func OpenPostgres(ctx context.Context, pool *pgxpool.Pool, migrationsTable string, log *slog.Logger) (*Postgres, error) {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("routecache: migrations: %w", err)
	}
	if err := db.Migrate(ctx, pool, sub, migrationsTable, log); err != nil {
		return nil, fmt.Errorf("routecache: migrate postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Load implements Store.
func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT snapshot FROM route_cache WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("routecache: load: %w", err)
	}
	return data, nil
}

// Save implements Store.
func (p *Postgres) Save(ctx context.Context, key string, data []byte) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO route_cache (key, snapshot, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`, key, data)
	if err != nil {
		return fmt.Errorf("routecache: save: %w", err)
	}
	return nil
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM route_cache WHERE key = $1`, key); err != nil {
		return fmt.Errorf("routecache: delete: %w", err)
	}
	return nil
}

// Purge removes every snapshot.
func (p *Postgres) Purge(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `TRUNCATE route_cache`); err != nil {
		return fmt.Errorf("routecache: purge: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return db.Healthcheck(p.pool)(ctx)
}

var _ Store = (*Postgres)(nil)
