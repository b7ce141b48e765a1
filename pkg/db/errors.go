package db

import "errors"

// Connection errors wrap the pgx cause with errors.Join.
var (
	ErrEmptyConnectionURL = errors.New("db: empty connection URL")
	ErrInvalidConfig      = errors.New("db: invalid connection URL or pool settings")
	ErrUnreachable        = errors.New("db: server unreachable")
	ErrUnhealthy          = errors.New("db: readiness ping failed")
)

// ErrMigrate wraps goose failures; the route cache refuses to open when
// its schema cannot be brought up to date.
var ErrMigrate = errors.New("db: migrate schema")
