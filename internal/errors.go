package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the dispatch stage.
var (
	// ErrUnknownMiddleware is returned when a route's middleware option names
	// an entry that is not in the middleware set.
	ErrUnknownMiddleware = errors.New("routeforge: unknown middleware")

	// ErrUnknownController is returned when a controller target names an
	// unregistered controller.
	ErrUnknownController = errors.New("routeforge: unknown controller")

	// ErrUnknownAction is returned when the controller exists but has no such action.
	ErrUnknownAction = errors.New("routeforge: unknown action")

	// ErrInvalidTarget is returned when a dispatch target has the wrong shape
	// for its strategy.
	ErrInvalidTarget = errors.New("routeforge: invalid dispatch target")

	// ErrNotSerializable is returned by Snapshot for targets that cannot be
	// persisted, such as closures.
	ErrNotSerializable = errors.New("routeforge: dispatch is not serializable")

	// ErrInvalidSnapshot is returned when a persisted snapshot cannot be decoded.
	ErrInvalidSnapshot = errors.New("routeforge: invalid dispatch snapshot")

	// ErrUnknownKind is returned when restoring a snapshot whose strategy kind
	// has no resolver.
	ErrUnknownKind = errors.New("routeforge: unknown dispatch kind")

	// ErrOutputDrained is returned by OutputBuffer.Drain after the buffer was drained.
	ErrOutputDrained = errors.New("routeforge: output already drained")

	// ErrViewNotConfigured is returned by view routes when the engine has no renderer.
	ErrViewNotConfigured = errors.New("routeforge: view renderer not configured")

	// ErrUnsupportedType is returned by the response factory for unknown return types.
	ErrUnsupportedType = errors.New("routeforge: unsupported response type")
)

// HTTPError represents an HTTP error with all data needed for rendering.
// Strategies and middleware return it to choose the status code of the error
// response produced by the engine's error handler.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// ErrorCode is an application-specific error code.
	ErrorCode string

	// RequestID is the request tracking ID.
	RequestID string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrMethodNotAllowed(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusMethodNotAllowed, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// IsHTTPError reports whether err wraps an HTTPError.
func IsHTTPError(err error) bool {
	return AsHTTPError(err) != nil
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// ValidationError reports invalid input detected below the dispatch stage,
// typically by a controller action. The engine renders it as 422.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
