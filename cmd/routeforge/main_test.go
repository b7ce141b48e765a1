package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/routeforge/pkg/logger"
)

const testRoutes = `
routes:
  - pattern: /hello
    kind: response
    target: hello
    options:
      cache: [~, 60, greetings]
  - pattern: /docs/{page}
    kind: view
    target: docs
`

func newTestApp(t *testing.T, mutate func(*Config)) *app {
	t.Helper()

	dir := t.TempDir()
	routes := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(routes, []byte(testRoutes), 0o600))

	cfg := defaultConfig()
	cfg.Routes = routes
	cfg.RouteCache.Path = filepath.Join(dir, "routes.db")
	cfg.System = SystemConfig{Enabled: true, Prefix: "/_system", Token: "secret"}
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := build(context.Background(), cfg, logger.NewNope())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.cache.Close()
		for i := len(a.shutdown) - 1; i >= 0; i-- {
			_ = a.shutdown[i](context.Background())
		}
	})
	return a
}

func do(a *app, method, target string, header http.Header) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		r.Header[k] = v
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, r)
	return w
}

// --- Build ---

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("serves configured routes", func(t *testing.T) {
		t.Parallel()

		a := newTestApp(t, nil)
		w := do(a, http.MethodGet, "/hello", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "hello", w.Body.String())
	})

	t.Run("readiness includes the route cache", func(t *testing.T) {
		t.Parallel()

		a := newTestApp(t, nil)
		w := do(a, http.MethodGet, "/health/ready?format=json", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "healthy", gjson.Get(w.Body.String(), "checks.route_cache.status").String())
	})

	t.Run("missing routes file", func(t *testing.T) {
		t.Parallel()

		cfg := defaultConfig()
		cfg.Routes = filepath.Join(t.TempDir(), "none.yaml")
		_, err := build(context.Background(), cfg, logger.NewNope())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("markdown views come from the views dir", func(t *testing.T) {
		t.Parallel()

		views := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(views, "docs.md"), []byte("# Docs {{.page}}\n"), 0o600))

		a := newTestApp(t, func(c *Config) { c.Views.Dir = views })
		w := do(a, http.MethodGet, "/docs/intro", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "<h1>Docs intro</h1>")
	})
}

// --- System controller ---

func TestSystem(t *testing.T) {
	t.Parallel()

	t.Run("version", func(t *testing.T) {
		t.Parallel()

		w := do(newTestApp(t, nil), http.MethodGet, "/_system/version", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, version, gjson.Get(w.Body.String(), "version").String())
	})

	t.Run("routes lists the table", func(t *testing.T) {
		t.Parallel()

		w := do(newTestApp(t, nil), http.MethodGet, "/_system/routes", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		require.Equal(t, int64(5), gjson.Get(body, "#").Int())
		require.Equal(t, "/hello", gjson.Get(body, "0.pattern").String())
		require.Equal(t, "response", gjson.Get(body, "0.kind").String())
	})

	t.Run("purge requires the token", func(t *testing.T) {
		t.Parallel()

		w := do(newTestApp(t, nil), http.MethodPost, "/_system/cache/greetings/purge", http.Header{
			"Accept": {"application/json"},
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "invalid token", gjson.Get(w.Body.String(), "error").String())
	})

	t.Run("purge without a configured token is hidden", func(t *testing.T) {
		t.Parallel()

		a := newTestApp(t, func(c *Config) { c.System.Token = "" })
		w := do(a, http.MethodPost, "/_system/cache/greetings/purge", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("purge invalidates the tag", func(t *testing.T) {
		t.Parallel()

		a := newTestApp(t, nil)
		require.Equal(t, http.StatusOK, do(a, http.MethodGet, "/hello", nil).Code)

		w := do(a, http.MethodPost, "/_system/cache/greetings/purge", http.Header{
			"Authorization": {"Bearer secret"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "greetings", gjson.Get(w.Body.String(), "purged").String())
	})

	t.Run("disabled system mounts nothing", func(t *testing.T) {
		t.Parallel()

		a := newTestApp(t, func(c *Config) { c.System.Enabled = false })
		require.Equal(t, http.StatusNotFound, do(a, http.MethodGet, "/_system/version", nil).Code)
		require.Len(t, a.engine.Routes(), 2)
	})
}

// --- Error page ---

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, nil)

	t.Run("html clients get the error component", func(t *testing.T) {
		t.Parallel()

		w := do(a, http.MethodGet, "/nowhere", http.Header{"Accept": {"text/html"}})
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		require.Contains(t, w.Body.String(), "<h1>404</h1>")
		require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	})

	t.Run("json clients get a JSON body", func(t *testing.T) {
		t.Parallel()

		w := do(a, http.MethodGet, "/nowhere", http.Header{"Accept": {"application/json"}})
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "Not Found", gjson.Get(w.Body.String(), "error").String())
	})

	t.Run("messages are escaped", func(t *testing.T) {
		t.Parallel()

		var sb testWriter
		require.NoError(t, errorPage(map[string]any{"code": 400, "message": "<b>x</b>"}).Render(context.Background(), &sb))
		require.Contains(t, string(sb), "&lt;b&gt;x&lt;/b&gt;")
	})
}

type testWriter []byte

func (w *testWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
