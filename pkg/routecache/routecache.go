package routecache

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/zeebo/blake3"
)

var (
	// ErrNotFound is returned by Load for unknown keys.
	ErrNotFound = errors.New("routecache: entry not found")

	// ErrEmptyPath is returned by OpenSQLite for an empty database path.
	ErrEmptyPath = errors.New("routecache: sqlite path is empty")
)

// Store persists compiled route snapshots by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Purger is implemented by stores that can drop every snapshot at once.
type Purger interface {
	Purge(ctx context.Context) error
}

// Key derives a fixed-length cache key from its parts, typically a route
// table version, the HTTP method and the request path.
func Key(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
