package middlewares_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/middlewares"
)

func corsRequest(method, origin string) *http.Request {
	r := newRequest(method, "/")
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func corsWith(mutate func(*middlewares.CORSConfig)) internal.Middleware {
	cfg := middlewares.DefaultCORSConfig()
	mutate(&cfg)
	return middlewares.CORS(cfg)
}

func allowedOrigin(t *testing.T, mw internal.Middleware, origin string) string {
	t.Helper()
	resp, err := call(mw, corsRequest(http.MethodGet, origin), okHandler("ok"))
	require.NoError(t, err)
	return resp.Header().Get("Access-Control-Allow-Origin")
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("default configuration allows all origins", func(t *testing.T) {
		t.Parallel()

		resp, err := call(middlewares.CORS(middlewares.DefaultCORSConfig()), corsRequest(http.MethodGet, "http://example.com"), okHandler("ok"))
		require.NoError(t, err)
		require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, []string{"Origin"}, resp.Header().Values("Vary"))
	})

	t.Run("no CORS headers without an Origin", func(t *testing.T) {
		t.Parallel()

		require.Empty(t, allowedOrigin(t, middlewares.CORS(middlewares.DefaultCORSConfig()), ""))
	})

	t.Run("listed origins are echoed", func(t *testing.T) {
		t.Parallel()

		mw := corsWith(func(c *middlewares.CORSConfig) {
			c.AllowOrigins = []string{"http://allowed.com", "http://also-allowed.com"}
		})
		require.Equal(t, "http://allowed.com", allowedOrigin(t, mw, "http://allowed.com"))
		require.Empty(t, allowedOrigin(t, mw, "http://blocked.com"))
	})

	t.Run("subdomain patterns", func(t *testing.T) {
		t.Parallel()

		mw := corsWith(func(c *middlewares.CORSConfig) {
			c.AllowOrigins = []string{"https://*.example.com"}
		})
		require.Equal(t, "https://app.example.com", allowedOrigin(t, mw, "https://app.example.com"))
		require.Equal(t, "https://a.b.example.com", allowedOrigin(t, mw, "https://a.b.example.com"))
		require.Empty(t, allowedOrigin(t, mw, "https://example.com"))
		require.Empty(t, allowedOrigin(t, mw, "http://app.example.com"))
		require.Empty(t, allowedOrigin(t, mw, "https://evilexample.com"))
	})

	t.Run("AllowOriginFunc overrides AllowOrigins", func(t *testing.T) {
		t.Parallel()

		mw := corsWith(func(c *middlewares.CORSConfig) {
			c.AllowOrigins = []string{"http://static.com"}
			c.AllowOriginFunc = func(origin string) bool { return origin == "http://dynamic.com" }
		})
		require.Equal(t, "http://dynamic.com", allowedOrigin(t, mw, "http://dynamic.com"))
		require.Empty(t, allowedOrigin(t, mw, "http://static.com"))
	})

	t.Run("preflight is answered without calling the handler", func(t *testing.T) {
		t.Parallel()

		called := false
		h := func(context.Context, *internal.Request) (*internal.Response, error) {
			called = true
			return internal.NewResponse(http.StatusOK, nil, nil), nil
		}

		mw := corsWith(func(c *middlewares.CORSConfig) { c.MaxAge = time.Hour })
		resp, err := call(mw, corsRequest(http.MethodOptions, "http://example.com"), h)
		require.NoError(t, err)
		require.False(t, called)
		require.Equal(t, http.StatusNoContent, resp.Status())
		require.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		require.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		require.Equal(t, "3600", resp.Header().Get("Access-Control-Max-Age"))
		require.Equal(t, []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"}, resp.Header().Values("Vary"))
	})

	t.Run("credentials mode echoes origin instead of wildcard", func(t *testing.T) {
		t.Parallel()

		mw := corsWith(func(c *middlewares.CORSConfig) { c.AllowCredentials = true })
		resp, err := call(mw, corsRequest(http.MethodGet, "http://example.com"), okHandler("ok"))
		require.NoError(t, err)
		require.Equal(t, "http://example.com", resp.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("expose headers", func(t *testing.T) {
		t.Parallel()

		mw := corsWith(func(c *middlewares.CORSConfig) { c.ExposeHeaders = []string{"X-Request-ID", "X-Total"} })
		resp, err := call(mw, corsRequest(http.MethodGet, "http://example.com"), okHandler("ok"))
		require.NoError(t, err)
		require.Equal(t, "X-Request-ID, X-Total", resp.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("existing Vary values are kept", func(t *testing.T) {
		t.Parallel()

		h := func(context.Context, *internal.Request) (*internal.Response, error) {
			return internal.NewResponse(http.StatusOK, nil, http.Header{"Vary": {"Accept"}}), nil
		}
		resp, err := call(middlewares.CORS(middlewares.DefaultCORSConfig()), corsRequest(http.MethodGet, "http://example.com"), h)
		require.NoError(t, err)
		require.Equal(t, []string{"Accept", "Origin"}, resp.Header().Values("Vary"))
	})

	t.Run("handler errors pass through", func(t *testing.T) {
		t.Parallel()

		h := func(context.Context, *internal.Request) (*internal.Response, error) {
			return nil, internal.ErrNotFound("missing")
		}
		resp, err := call(middlewares.CORS(middlewares.DefaultCORSConfig()), corsRequest(http.MethodGet, "http://example.com"), h)
		require.Error(t, err)
		require.Nil(t, resp)
	})
}

func TestCORSFromRouteOption(t *testing.T) {
	t.Parallel()

	t.Run("origins come from the route option arguments", func(t *testing.T) {
		t.Parallel()

		q := internal.NewMiddlewareQueue(middlewares.Defaults(nil))
		require.NoError(t, q.Import([]string{"cors:https://a.example.com, https://*.docs.example.com"}))

		for origin, want := range map[string]string{
			"https://a.example.com":       "https://a.example.com",
			"https://v2.docs.example.com": "https://v2.docs.example.com",
			"https://b.example.com":       "",
		} {
			r := corsRequest(http.MethodGet, origin)
			resp, err := q.Then(okHandler("ok"))(r.Context(), internal.NewRequest(r))
			require.NoError(t, err)
			require.Equal(t, want, resp.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	})

	t.Run("malformed origin is rejected", func(t *testing.T) {
		t.Parallel()

		q := internal.NewMiddlewareQueue(middlewares.Defaults(nil))
		require.ErrorIs(t, q.Import([]string{"cors:example.com"}), middlewares.ErrInvalidArgs)
		require.ErrorIs(t, q.Import([]string{"cors:https://example.com/path"}), middlewares.ErrInvalidArgs)
	})
}
