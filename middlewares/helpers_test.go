package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/dmitrymomot/routeforge/internal"
)

// call runs h wrapped by mw against a fresh request.
func call(mw internal.Middleware, r *http.Request, h internal.Handler) (*internal.Response, error) {
	req := internal.NewRequest(r)
	return mw(h)(r.Context(), req)
}

func okHandler(body string) internal.Handler {
	return func(context.Context, *internal.Request) (*internal.Response, error) {
		return internal.NewResponse(http.StatusOK, []byte(body), nil), nil
	}
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
