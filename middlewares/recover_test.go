package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/middlewares"
)

func panicking(v any) internal.Handler {
	return func(context.Context, *internal.Request) (*internal.Response, error) {
		panic(v)
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("recovers from panic and returns PanicError", func(t *testing.T) {
		t.Parallel()

		resp, err := call(middlewares.Recover(), newRequest(http.MethodGet, "/"), panicking("test panic"))
		require.Nil(t, resp)
		require.True(t, middlewares.IsPanicError(err))

		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.Equal(t, "test panic", pe.Value)
		require.NotEmpty(t, pe.Stack)
		require.Equal(t, http.StatusInternalServerError, internal.StatusCode(err))
	})

	t.Run("passes through when no panic", func(t *testing.T) {
		t.Parallel()

		resp, err := call(middlewares.Recover(), newRequest(http.MethodGet, "/"), okHandler("ok"))
		require.NoError(t, err)
		require.Equal(t, "ok", string(resp.Body()))
	})

	t.Run("respects DisablePrintStack option", func(t *testing.T) {
		t.Parallel()

		_, err := call(middlewares.Recover(middlewares.WithRecoverDisablePrintStack()), newRequest(http.MethodGet, "/"), panicking("x"))
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.Nil(t, pe.Stack)
	})

	t.Run("custom stack size bounds the trace", func(t *testing.T) {
		t.Parallel()

		_, err := call(middlewares.Recover(middlewares.WithRecoverStackSize(64)), newRequest(http.MethodGet, "/"), panicking("x"))
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.NotEmpty(t, pe.Stack)
		require.LessOrEqual(t, len(pe.Stack), 64)
	})

	t.Run("recovers from error panic", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := call(middlewares.Recover(), newRequest(http.MethodGet, "/"), panicking(boom))
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.Equal(t, boom, pe.Value)
	})

	t.Run("handler error is returned without modification", func(t *testing.T) {
		t.Parallel()

		want := errors.New("handler failed")
		h := func(context.Context, *internal.Request) (*internal.Response, error) { return nil, want }
		_, err := call(middlewares.Recover(), newRequest(http.MethodGet, "/"), h)
		require.Equal(t, want, err)
		require.False(t, middlewares.IsPanicError(err))
	})

	t.Run("records the matched rule", func(t *testing.T) {
		t.Parallel()

		r := newRequest(http.MethodGet, "/docs/intro")
		req := internal.NewRequest(r)
		req.SetRouteInfo(internal.RouteInfo{Rule: "/docs/{page}"})

		_, err := middlewares.Recover()(panicking("x"))(r.Context(), req)
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.Equal(t, "/docs/{page}", pe.Rule)
	})
}
