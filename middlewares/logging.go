package middlewares

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/pkg/logger"
)

// RequestIDExtractor adds "request_id" to log entries written under a
// context RequestID has seen.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := GetRequestID(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// RouteExtractor adds the matched rule pattern as "route" to log entries
// written after routing.
func RouteExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		info, ok := internal.RouteInfoFromContext(ctx)
		if !ok || info.Rule == "" {
			return slog.Attr{}, false
		}
		return slog.String("route", info.Rule), true
	}
}
