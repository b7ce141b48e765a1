package internal_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/pkg/cache"
	"github.com/dmitrymomot/routeforge/pkg/routecache"
)

// countingStore is an in-memory routecache.Store that counts hits.
type countingStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	hits  int
	saves int
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string][]byte)}
}

func (s *countingStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, routecache.ErrNotFound
	}
	s.hits++
	return v, nil
}

func (s *countingStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	s.saves++
	return nil
}

func (s *countingStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *countingStore) stats() (hits, saves int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.saves
}

func serve(e *internal.Engine, method, target string, header http.Header) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		r.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	return rec
}

func blogControllers(calls *atomic.Int32) internal.Controllers {
	return internal.Controllers{
		"blog": {
			"show": func(_ context.Context, d *internal.Dispatch) (any, error) {
				calls.Add(1)
				return map[string]any{"id": internal.Var[int](d.Request(), "id")}, nil
			},
			"create": func(context.Context, *internal.Dispatch) (any, error) {
				return nil, &internal.ValidationError{Fields: map[string]string{"title": "required"}}
			},
		},
	}
}

// --- Routing ---

func TestEngine_Routing(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	e := internal.NewEngine(
		internal.WithConfig(internal.Config{DefaultReturnType: internal.TypeJSON, DefaultAjaxReturn: internal.TypeJSON}),
		internal.WithControllers(blogControllers(&calls)),
		internal.WithRoutes(
			internal.ControllerRoute(http.MethodGet, "/blog/{id}", "blog@show"),
			internal.ControllerRoute(http.MethodPost, "/blog", "blog@create"),
			internal.RedirectRoute("/posts/{id}", "/blog/:id", http.StatusMovedPermanently),
			internal.ResponseRoute("/robots.txt", "User-agent: *", 0),
			internal.CallbackRoute(http.MethodGet, "/hello/{name}", func(_ context.Context, r *internal.Request, _ map[string]any, out io.Writer) (any, error) {
				_, err := io.WriteString(out, "hello "+r.RouteVar("name"))
				return nil, err
			}),
		),
		internal.WithHealthChecks(),
	)

	t.Run("controller", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodGet, "/blog/42", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, int64(42), gjson.Get(rec.Body.String(), "id").Int())
	})

	t.Run("validation error is 422", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodPost, "/blog", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("redirect", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodGet, "/posts/9", nil)
		require.Equal(t, http.StatusMovedPermanently, rec.Code)
		require.Equal(t, "/blog/9", rec.Header().Get("Location"))
	})

	t.Run("static response", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodGet, "/robots.txt", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "User-agent: *", rec.Body.String())
	})

	t.Run("callback", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodGet, "/hello/ann", nil)
		require.Equal(t, "hello ann", rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodGet, "/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()

		rec := serve(e, http.MethodDelete, "/blog/1", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("health endpoints", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health/live", nil).Code)
		require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health/ready", nil).Code)
	})

	t.Run("routes are listed", func(t *testing.T) {
		t.Parallel()

		require.Len(t, e.Routes(), 5)
	})
}

func TestEngine_UnknownKindPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		internal.NewEngine(internal.WithRoutes(internal.Route{Method: http.MethodGet, Pattern: "/", Kind: "rpc"}))
	})
}

// --- Middleware ---

func TestEngine_Middleware(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		trace []string
	)
	mark := func(name string) internal.Middleware {
		return func(next internal.Handler) internal.Handler {
			return func(ctx context.Context, r *internal.Request) (*internal.Response, error) {
				mu.Lock()
				trace = append(trace, name)
				mu.Unlock()
				return next(ctx, r)
			}
		}
	}

	e := internal.NewEngine(
		internal.WithMiddleware(mark("global")),
		internal.WithMiddlewareSet(internal.MiddlewareSet{
			"auth":  internal.Static(mark("auth")),
			"audit": internal.Static(mark("audit")),
		}),
		internal.WithRoutes(
			internal.ResponseRoute("/admin", "ok", 0, internal.Options(internal.RouteOptions{
				Middleware: []string{"auth", "audit"},
				Header:     map[string]string{"X-Frame-Options": "DENY"},
			})),
			internal.ResponseRoute("/broken", "ok", 0, internal.Options(internal.RouteOptions{
				Middleware: []string{"missing"},
			})),
		),
	)

	t.Run("global runs before route middleware", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/admin", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{"global", "auth", "audit"}, trace)
	})

	t.Run("unknown route middleware is a server error", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/broken", nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

// --- Response cache ---

func TestEngine_ResponseCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	rc := internal.NewResponseCache(cache.NewMemory[internal.CachedResponse]())
	t.Cleanup(func() { _ = rc.Close() })

	e := internal.NewEngine(
		internal.WithConfig(internal.Config{DefaultReturnType: internal.TypeJSON}),
		internal.WithControllers(blogControllers(&calls)),
		internal.WithResponseCache(rc),
		internal.WithRoutes(
			internal.ControllerRoute(http.MethodGet, "/blog/{id}", "blog@show", internal.Options(internal.RouteOptions{
				Cache:  internal.CacheEntry("post_:id", time.Minute, "blog"),
				Header: map[string]string{"Cache-Control": "public"},
			})),
		),
	)

	first := serve(e, http.MethodGet, "/blog/7", nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := serve(e, http.MethodGet, "/blog/7", nil)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, "public", second.Header().Get("Cache-Control"))
	require.Equal(t, int32(1), calls.Load())

	serve(e, http.MethodGet, "/blog/8", nil)
	require.Equal(t, int32(2), calls.Load())

	require.NoError(t, rc.InvalidateTag(context.Background(), "blog"))
	serve(e, http.MethodGet, "/blog/7", nil)
	require.Equal(t, int32(3), calls.Load())
}

func TestEngine_ResponseCacheScriptRequests(t *testing.T) {
	t.Parallel()

	newEngine := func(t *testing.T) *internal.Engine {
		t.Helper()

		rc := internal.NewResponseCache(cache.NewMemory[internal.CachedResponse]())
		t.Cleanup(func() { _ = rc.Close() })
		return internal.NewEngine(
			internal.WithResponseCache(rc),
			internal.WithRoutes(internal.RedirectRoute("/old", "/new", http.StatusFound, internal.Options(internal.RouteOptions{
				Cache: internal.CacheFor(time.Minute),
			}))),
		)
	}

	t.Run("htmx redirect is not served to browsers", func(t *testing.T) {
		t.Parallel()

		e := newEngine(t)
		hx := serve(e, http.MethodGet, "/old", http.Header{"Hx-Request": {"true"}})
		require.Equal(t, http.StatusOK, hx.Code)
		require.Equal(t, "/new", hx.Header().Get("HX-Redirect"))
		require.Equal(t, "HX-Request", hx.Header().Get("Vary"))

		browser := serve(e, http.MethodGet, "/old", nil)
		require.Equal(t, http.StatusFound, browser.Code)
		require.Equal(t, "/new", browser.Header().Get("Location"))
		require.Empty(t, browser.Header().Get("HX-Redirect"))
	})

	t.Run("cached browser redirect is not served to htmx", func(t *testing.T) {
		t.Parallel()

		e := newEngine(t)
		require.Equal(t, http.StatusFound, serve(e, http.MethodGet, "/old", nil).Code)

		hx := serve(e, http.MethodGet, "/old", http.Header{"Hx-Request": {"true"}})
		require.Equal(t, http.StatusOK, hx.Code)
		require.Equal(t, "/new", hx.Header().Get("HX-Redirect"))
		require.Empty(t, hx.Header().Get("Location"))
	})

	t.Run("xhr responses are not cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		rc := internal.NewResponseCache(cache.NewMemory[internal.CachedResponse]())
		t.Cleanup(func() { _ = rc.Close() })
		e := internal.NewEngine(
			internal.WithConfig(internal.Config{DefaultReturnType: internal.TypeJSON}),
			internal.WithControllers(blogControllers(&calls)),
			internal.WithResponseCache(rc),
			internal.WithRoutes(internal.ControllerRoute(http.MethodGet, "/blog/{id}", "blog@show", internal.Options(internal.RouteOptions{
				Cache: internal.CacheFor(time.Minute),
			}))),
		)

		xhr := http.Header{"X-Requested-With": {"XMLHttpRequest"}}
		serve(e, http.MethodGet, "/blog/3", xhr)
		serve(e, http.MethodGet, "/blog/3", xhr)
		require.Equal(t, int32(2), calls.Load())

		serve(e, http.MethodGet, "/blog/3", nil)
		serve(e, http.MethodGet, "/blog/3", nil)
		require.Equal(t, int32(3), calls.Load())
	})
}

// --- Route cache ---

func TestEngine_RouteCache(t *testing.T) {
	t.Parallel()

	t.Run("restored dispatch answers the same", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		store := newCountingStore()
		e := internal.NewEngine(
			internal.WithConfig(internal.Config{DefaultReturnType: internal.TypeJSON}),
			internal.WithControllers(blogControllers(&calls)),
			internal.WithRouteCache(store),
			internal.WithRoutes(internal.ControllerRoute(http.MethodGet, "/blog/{id}", "blog@show")),
		)

		first := serve(e, http.MethodGet, "/blog/5", nil)
		hits, saves := store.stats()
		require.Zero(t, hits)
		require.Equal(t, 1, saves)

		second := serve(e, http.MethodGet, "/blog/5", nil)
		hits, saves = store.stats()
		require.Equal(t, 1, hits)
		require.Equal(t, 1, saves)

		require.Equal(t, first.Code, second.Code)
		require.JSONEq(t, first.Body.String(), second.Body.String())
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("restored targets and params keep their types", func(t *testing.T) {
		t.Parallel()

		store := newCountingStore()
		e := internal.NewEngine(
			internal.WithConfig(internal.Config{DefaultReturnType: internal.TypeJSON}),
			internal.WithControllers(internal.Controllers{
				"feed": {
					"list": func(_ context.Context, d *internal.Dispatch) (any, error) {
						return map[string]any{"limit": internal.Param[int](d, "limit")}, nil
					},
				},
			}),
			internal.WithRouteCache(store),
			internal.WithRoutes(
				internal.ResponseRoute("/raw", []byte("hello"), http.StatusOK),
				internal.ControllerRoute(http.MethodGet, "/feed", "feed@list", internal.Params(map[string]any{"limit": 1000000})),
			),
		)

		for range 2 {
			raw := serve(e, http.MethodGet, "/raw", nil)
			require.Equal(t, http.StatusOK, raw.Code)
			require.Equal(t, "hello", raw.Body.String())

			feed := serve(e, http.MethodGet, "/feed", nil)
			require.Equal(t, http.StatusOK, feed.Code)
			require.Equal(t, int64(1000000), gjson.Get(feed.Body.String(), "limit").Int())
		}

		hits, saves := store.stats()
		require.Equal(t, 2, hits)
		require.Equal(t, 2, saves)
	})

	t.Run("routes with unsupported targets are served but not persisted", func(t *testing.T) {
		t.Parallel()

		type payload struct {
			Name string `json:"name"`
		}
		store := newCountingStore()
		e := internal.NewEngine(
			internal.WithRouteCache(store),
			internal.WithRoutes(internal.ResponseRoute("/payload", payload{Name: "x"}, http.StatusOK)),
		)

		for range 2 {
			rec := serve(e, http.MethodGet, "/payload", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "x", gjson.Get(rec.Body.String(), "name").String())
		}
		_, saves := store.stats()
		require.Zero(t, saves)
	})

	t.Run("callback routes are not persisted", func(t *testing.T) {
		t.Parallel()

		store := newCountingStore()
		e := internal.NewEngine(
			internal.WithRouteCache(store),
			internal.WithRoutes(internal.CallbackRoute(http.MethodGet, "/cb", func(context.Context, *internal.Request, map[string]any, io.Writer) (any, error) {
				return "cb", nil
			})),
		)

		require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/cb", nil).Code)
		_, saves := store.stats()
		require.Zero(t, saves)
	})

	t.Run("sqlite store behind memory tier", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		db, err := routecache.OpenSQLite(ctx, filepath.Join(t.TempDir(), "routes.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		front := cache.NewMemory[[]byte]()
		t.Cleanup(func() { _ = front.Close() })

		e := internal.NewEngine(
			internal.WithRouteCache(routecache.NewTiered(front, db, time.Minute)),
			internal.WithRoutes(internal.RedirectRoute("/go/{slug}", "/docs/:slug", http.StatusFound)),
			internal.WithHealthChecks(),
		)

		for range 3 {
			rec := serve(e, http.MethodGet, "/go/intro", nil)
			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, "/docs/intro", rec.Header().Get("Location"))
		}

		rec := serve(e, http.MethodGet, "/health/ready?format=json", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "healthy", gjson.Get(rec.Body.String(), "checks.route_cache.status").String())
	})
}

// --- Errors ---

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{internal.ErrNotFound("x"), http.StatusNotFound},
		{internal.NewHTTPError(http.StatusConflict, "dup"), http.StatusConflict},
		{&internal.ValidationError{}, http.StatusUnprocessableEntity},
		{internal.ErrUnknownController, http.StatusNotFound},
		{internal.ErrUnknownAction, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, internal.StatusCode(tt.err), tt.err.Error())
	}
}

func TestEngine_ErrorHandler(t *testing.T) {
	t.Parallel()

	var got error
	e := internal.NewEngine(
		internal.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusTeapot)
		}),
		internal.WithRoutes(internal.ControllerRoute(http.MethodGet, "/x", "missing@action")),
	)

	rec := serve(e, http.MethodGet, "/x", nil)
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.ErrorIs(t, got, internal.ErrUnknownController)
}
