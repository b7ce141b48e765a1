// Package db opens PostgreSQL pools and applies goose migrations.
//
// It backs the Postgres route cache store:
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store, err := routecache.OpenPostgres(ctx, pool, cfg.MigrationsTable, log)
//
// Connect retries until the server answers a ping. Shutdown and
// Healthcheck plug into the engine's run and health options.
package db
