package middlewares

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/routeforge/internal"
)

// Defaults returns the named middleware routes can import through their
// middleware option:
//
//	request_id           RequestID()
//	recover              Recover()
//	timeout:<duration>   Timeout(duration), DefaultTimeout without argument
//	cors[:<origin>,...]  CORS(DefaultCORSConfig()), limited to the listed origins
//	header:<name>=<val>  Headers({name: val})
//
// l receives panic and timeout reports; nil disables them.
func Defaults(l *slog.Logger) internal.MiddlewareSet {
	return internal.MiddlewareSet{
		"request_id": internal.Static(RequestID()),
		"recover":    internal.Static(Recover(WithRecoverLogger(l))),
		"cors":       corsFactory,
		"header":     headerFactory,
		"timeout": func(args ...string) (internal.Middleware, error) {
			if len(args) == 0 {
				return Timeout(DefaultTimeout, WithTimeoutLogger(l)), nil
			}
			d, err := time.ParseDuration(args[0])
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("%w: timeout %q", ErrInvalidArgs, args[0])
			}
			return Timeout(d, WithTimeoutLogger(l)), nil
		},
	}
}
