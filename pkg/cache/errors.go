package cache

import "errors"

var (
	// ErrNotFound reports a missing or expired key. Response caches treat
	// it as a miss and dispatch the route normally.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned by Memory after Close; the engine closes its
	// response cache once the server has drained.
	ErrClosed = errors.New("cache: closed")

	// ErrMarshal and ErrUnmarshal wrap Marshaler failures in Redis.
	ErrMarshal   = errors.New("cache: marshal value")
	ErrUnmarshal = errors.New("cache: unmarshal value")
)

// IsMiss reports whether err means the key is absent rather than the
// backend failing.
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound)
}
