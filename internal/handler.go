package internal

import (
	"context"
	"net/http"
)

// Handler produces the response for a dispatched request.
// Returning a non-nil error hands the request to the engine's ErrorHandler.
type Handler func(ctx context.Context, r *Request) (*Response, error)

// Middleware wraps a Handler to add cross-cutting concerns.
// Middleware can inspect the request, short-circuit processing,
// or rewrite the response.
//
// Example:
//
//	func Auth(next routeforge.Handler) routeforge.Handler {
//	    return func(ctx context.Context, r *routeforge.Request) (*routeforge.Response, error) {
//	        if r.Header("Authorization") == "" {
//	            return nil, routeforge.NewHTTPError(http.StatusUnauthorized, "unauthorized")
//	        }
//	        return next(ctx, r)
//	    }
//	}
type Middleware func(next Handler) Handler

// ErrorHandler writes the response for an error returned by a handler.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Chain composes middleware around h. The first middleware is the outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
