package middlewares

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/routeforge/internal"
)

// MaxRequestIDLength bounds IDs accepted from upstream headers.
const MaxRequestIDLength = 128

// DefaultRequestIDHeaders are checked in order for an upstream ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

type requestIDKey struct{}

// RequestIDConfig configures RequestID.
type RequestIDConfig struct {
	Generator      func() string
	ResponseHeader string
	Headers        []string
}

// RequestIDOption configures RequestIDConfig.
type RequestIDOption func(*RequestIDConfig)

// WithRequestIDHeaders replaces the headers an upstream ID is read from.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *RequestIDConfig) { cfg.Headers = headers }
}

// WithRequestIDGenerator replaces the UUIDv7 generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *RequestIDConfig) { cfg.Generator = gen }
}

// WithRequestIDResponseHeader renames the response header (X-Request-ID).
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *RequestIDConfig) { cfg.ResponseHeader = header }
}

// RequestID tags each request with an ID that error pages, logs and the
// response header share. Upstream IDs are kept when they are printable
// ASCII no longer than MaxRequestIDLength; anything else is replaced.
//
// Responses replayed from the response cache get the current request's ID.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &RequestIDConfig{
		Headers:        DefaultRequestIDHeaders,
		Generator:      newRequestID,
		ResponseHeader: "X-Request-ID",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, r *internal.Request) (*internal.Response, error) {
			id := upstreamRequestID(r, cfg.Headers)
			if id == "" {
				id = cfg.Generator()
			}

			ctx = context.WithValue(ctx, requestIDKey{}, id)
			r.WithContext(ctx)

			resp, err := next(ctx, r)
			if resp != nil {
				resp.Header().Set(cfg.ResponseHeader, id)
			}
			return resp, err
		}
	}
}

// GetRequestID returns the ID RequestID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func upstreamRequestID(r *internal.Request, headers []string) string {
	for _, h := range headers {
		if v := r.Header(h); v != "" {
			if validRequestID(v) {
				return v
			}
			return ""
		}
	}
	return ""
}

func validRequestID(id string) bool {
	if len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// newRequestID returns a time-ordered UUIDv7, falling back to v4.
func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
