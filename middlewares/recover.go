package middlewares

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/pkg/logger"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	Logger            *slog.Logger
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// WithRecoverLogger sets the logger panics are reported to.
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(cfg *RecoverConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// Recover returns middleware that recovers from panics.
// It logs the panic and returns a PanicError to be handled by the engine's ErrorHandler.
// Request ID is automatically included via RequestIDExtractor() if configured.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{
		Logger:    logger.NewNope(),
		StackSize: DefaultStackSize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, r *internal.Request) (resp *internal.Response, err error) {
			defer func() {
				if v := recover(); v != nil {
					var stack []byte
					if !cfg.DisablePrintStack {
						stack = make([]byte, cfg.StackSize)
						stack = stack[:runtime.Stack(stack, false)]
					}

					rule := matchedRule(r)
					attrs := []any{slog.Any("panic", v), slog.String("path", r.HTTP().URL.Path)}
					if rule != "" {
						attrs = append(attrs, slog.String("rule", rule))
					}
					if stack != nil {
						attrs = append(attrs, slog.String("stack", string(stack)))
					}
					cfg.Logger.ErrorContext(ctx, "panic recovered", attrs...)

					resp, err = nil, &PanicError{Value: v, Stack: stack, Rule: rule}
				}
			}()

			return next(ctx, r)
		}
	}
}
