package middlewares_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/middlewares"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates new request ID when not present", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := func(ctx context.Context, _ *internal.Request) (*internal.Response, error) {
			seen = middlewares.GetRequestID(ctx)
			return internal.NewResponse(http.StatusOK, nil, nil), nil
		}

		resp, err := call(middlewares.RequestID(), newRequest(http.MethodGet, "/"), h)
		require.NoError(t, err)
		require.NotEmpty(t, seen)
		require.Equal(t, seen, resp.Header().Get("X-Request-ID"))

		id, err := uuid.Parse(seen)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(7), id.Version())
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		t.Parallel()

		r := newRequest(http.MethodGet, "/")
		r.Header.Set("X-Correlation-ID", "upstream-id")

		resp, err := call(middlewares.RequestID(), r, okHandler(""))
		require.NoError(t, err)
		require.Equal(t, "upstream-id", resp.Header().Get("X-Request-ID"))
	})

	t.Run("custom generator and response header", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.RequestID(
			middlewares.WithRequestIDGenerator(func() string { return "fixed" }),
			middlewares.WithRequestIDResponseHeader("X-Trace"),
			middlewares.WithRequestIDHeaders("X-Trace"),
		)
		resp, err := call(mw, newRequest(http.MethodGet, "/"), okHandler(""))
		require.NoError(t, err)
		require.Equal(t, "fixed", resp.Header().Get("X-Trace"))
	})

	t.Run("request context carries the ID", func(t *testing.T) {
		t.Parallel()

		var fromRequest string
		h := func(_ context.Context, r *internal.Request) (*internal.Response, error) {
			fromRequest = middlewares.GetRequestID(r.Context())
			return nil, nil
		}
		r := newRequest(http.MethodGet, "/")
		r.Header.Set("X-Request-ID", "abc")

		resp, err := call(middlewares.RequestID(), r, h)
		require.NoError(t, err)
		require.Nil(t, resp)
		require.Equal(t, "abc", fromRequest)
	})

	t.Run("unsafe upstream IDs are replaced", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"with space", "line\nbreak", strings.Repeat("a", middlewares.MaxRequestIDLength+1)} {
			r := newRequest(http.MethodGet, "/")
			r.Header.Set("X-Request-ID", bad)

			resp, err := call(middlewares.RequestID(), r, okHandler(""))
			require.NoError(t, err)
			got := resp.Header().Get("X-Request-ID")
			require.NotEqual(t, bad, got)
			_, err = uuid.Parse(got)
			require.NoError(t, err)
		}
	})

	t.Run("GetRequestID returns empty without middleware", func(t *testing.T) {
		t.Parallel()

		require.Empty(t, middlewares.GetRequestID(context.Background()))
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extract := middlewares.RequestIDExtractor()

	_, ok := extract(context.Background())
	require.False(t, ok)

	var ctx context.Context
	h := func(c context.Context, _ *internal.Request) (*internal.Response, error) {
		ctx = c
		return nil, nil
	}
	r := newRequest(http.MethodGet, "/")
	r.Header.Set("X-Request-ID", "req-1")
	_, err := call(middlewares.RequestID(), r, h)
	require.NoError(t, err)

	attr, ok := extract(ctx)
	require.True(t, ok)
	require.Equal(t, "request_id", attr.Key)
	require.Equal(t, "req-1", attr.Value.String())
}
