package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/routeforge/internal"
)

// ErrInvalidArgs is returned by middleware factories for malformed route specs.
var ErrInvalidArgs = errors.New("middlewares: invalid arguments")

// PanicError is returned by Recover in place of a panicking handler's result.
// Rule is the matched rule's pattern, empty when the panic happened before
// routing completed.
type PanicError struct {
	Value any
	Stack []byte // nil when stack capture is disabled
	Rule  string
}

func (e *PanicError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("panic in rule %q: %v", e.Rule, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes an error panic value to errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// StatusCode maps a recovered panic to 500.
func (e *PanicError) StatusCode() int { return http.StatusInternalServerError }

// TimeoutError is returned by Timeout when the chain overruns its deadline.
type TimeoutError struct {
	Duration time.Duration
	Rule     string
}

func (e *TimeoutError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("rule %q timed out after %s", e.Rule, e.Duration)
	}
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

// StatusCode maps a timeout to 504.
func (e *TimeoutError) StatusCode() int { return http.StatusGatewayTimeout }

// IsPanicError reports whether err carries a PanicError.
func IsPanicError(err error) bool {
	_, ok := AsPanicError(err)
	return ok
}

// IsTimeoutError reports whether err carries a TimeoutError.
func IsTimeoutError(err error) bool {
	_, ok := AsTimeoutError(err)
	return ok
}

// AsPanicError extracts the PanicError from err.
func AsPanicError(err error) (*PanicError, bool) { return find[*PanicError](err) }

// AsTimeoutError extracts the TimeoutError from err.
func AsTimeoutError(err error) (*TimeoutError, bool) { return find[*TimeoutError](err) }

func find[T error](err error) (T, bool) {
	var target T
	if err == nil || !errors.As(err, &target) {
		var zero T
		return zero, false
	}
	return target, true
}

// matchedRule returns the pattern of the rule routing selected for r.
func matchedRule(r *internal.Request) string {
	if info, ok := r.RouteInfo(); ok {
		return info.Rule
	}
	return ""
}
