package middlewares

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/routeforge/internal"
)

// Headers returns middleware that sets the given headers on every response,
// replacing values the handler set.
func Headers(h map[string]string) internal.Middleware {
	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, r *internal.Request) (*internal.Response, error) {
			resp, err := next(ctx, r)
			if resp != nil {
				for name, value := range h {
					resp.Header().Set(name, value)
				}
			}
			return resp, err
		}
	}
}

// headerFactory builds Headers from "header:Name=value" specs.
// Commas inside the value are kept.
func headerFactory(args ...string) (internal.Middleware, error) {
	name, value, ok := strings.Cut(strings.Join(args, ","), "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: header expects name=value", ErrInvalidArgs)
	}
	return Headers(map[string]string{name: strings.TrimSpace(value)}), nil
}
