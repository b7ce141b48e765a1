package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/pkg/logger"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// TimeoutOption configures TimeoutConfig.
type TimeoutOption func(*TimeoutConfig)

// WithTimeoutLogger sets the logger timeouts are reported to.
func WithTimeoutLogger(l *slog.Logger) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// Timeout returns middleware that enforces a request timeout.
// If the handler does not complete within the timeout, a TimeoutError is returned
// to be handled by the engine's ErrorHandler.
//
// Note: The handler goroutine continues running after timeout. Use ctx.Done()
// in long-running actions to detect cancellation and terminate early.
func Timeout(timeout time.Duration, opts ...TimeoutOption) internal.Middleware {
	cfg := &TimeoutConfig{
		Logger:  logger.NewNope(),
		Timeout: timeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	type result struct {
		resp *internal.Response
		err  error
	}

	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, r *internal.Request) (*internal.Response, error) {
			rule := matchedRule(r)
			ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			done := make(chan result, 1)
			go func() {
				resp, err := next(ctx, r)
				done <- result{resp, err}
			}()

			select {
			case res := <-done:
				return res.resp, res.err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					cfg.Logger.WarnContext(ctx, "request timeout",
						slog.String("timeout", cfg.Timeout.String()),
						slog.String("rule", rule),
					)
					return nil, &TimeoutError{Duration: cfg.Timeout, Rule: rule}
				}
				return nil, ctx.Err()
			}
		}
	}
}
