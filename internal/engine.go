package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/routeforge/pkg/health"
	"github.com/dmitrymomot/routeforge/pkg/htmx"
	"github.com/dmitrymomot/routeforge/pkg/logger"
	"github.com/dmitrymomot/routeforge/pkg/routecache"
	"github.com/dmitrymomot/routeforge/pkg/view"
)

// Server timeouts used when Run is not given ServerTimeouts. The header
// timeout and size limit are fixed.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Engine matches requests against its routes and runs the dispatch stage.
// It is immutable after creation; all configuration is done via NewEngine.
type Engine struct {
	router        chi.Router
	logger        *slog.Logger
	errorHandler  ErrorHandler
	responses     ResponseFactory
	views         view.Renderer
	responseCache *ResponseCache
	routeCache    routecache.Store
	middlewareSet MiddlewareSet
	controllers   Controllers
	healthConfig  *healthConfig
	version       string
	middlewares   []Middleware
	routes        []Route
	config        Config
}

// NewEngine creates an engine with the given options.
//
// Example:
//
//	engine := routeforge.NewEngine(
//	    routeforge.WithMiddlewareSet(middlewares.Defaults(log)),
//	    routeforge.WithControllers(routeforge.Controllers{"blog": blog.Actions()}),
//	    routeforge.WithRoutes(
//	        routeforge.ControllerRoute(http.MethodGet, "/blog/{id}", "blog@show"),
//	        routeforge.RedirectRoute("/old", "/blog", http.StatusMovedPermanently),
//	    ),
//	)
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		router:    chi.NewRouter(),
		logger:    logger.NewNope(),
		responses: DefaultEncoders(),
		config:    DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.errorHandler == nil {
		e.errorHandler = e.defaultErrorHandler
	}

	e.setupRoutes()
	return e
}

// Router returns the underlying chi.Router.
func (e *Engine) Router() chi.Router {
	return e.router
}

// Routes returns the registered routes.
func (e *Engine) Routes() []Route {
	return append([]Route(nil), e.routes...)
}

// ServeHTTP implements http.Handler. A request whose method and path were
// matched before is restored from the route cache without consulting the router.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e.routeCache != nil && e.serveCached(w, r) {
		return
	}
	e.router.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until shutdown.
//
// Example:
//
//	err := engine.Run(":8080", routeforge.Logger(log))
func (e *Engine) Run(addr string, opts ...RunOption) error {
	cfg := newRunConfig(opts)
	if cfg.logger == nil {
		cfg.logger = e.logger
	}
	if e.responseCache != nil {
		cfg.shutdown = append(cfg.shutdown, func(context.Context) error { return e.responseCache.Close() })
	}
	return serve(addr, e, cfg)
}

// setupRoutes registers health endpoints and routes on the router.
func (e *Engine) setupRoutes() {
	e.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		e.errorHandler(w, r, ErrNotFound(http.StatusText(http.StatusNotFound)))
	})
	e.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		e.errorHandler(w, r, ErrMethodNotAllowed(http.StatusText(http.StatusMethodNotAllowed)))
	})

	if e.healthConfig != nil {
		e.router.Get(e.healthConfig.livenessPath, health.LivenessHandler())
		checks := maps.Clone(e.healthConfig.checks)
		if p, ok := e.routeCache.(health.Pinger); ok {
			if _, set := checks["route_cache"]; !set {
				checks["route_cache"] = health.Ping(p)
			}
		}
		e.router.Get(e.healthConfig.readinessPath, health.ReadinessHandler(checks, health.WithLogger(e.logger)))
	}

	for _, rt := range e.routes {
		strategy, err := e.strategy(rt.Kind)
		if err != nil {
			panic(fmt.Sprintf("routeforge: route %s %s: %v", rt.Method, rt.Pattern, err))
		}
		e.router.Method(rt.Method, rt.Pattern, e.routeHandler(rt, strategy))
	}

	e.version = routeTableVersion(e.routes)
}

// strategy returns the strategy for kind. It is the StrategyResolver used
// when restoring route snapshots.
func (e *Engine) strategy(kind Kind) (Strategy, error) {
	switch kind {
	case KindController:
		return ControllerStrategy{Controllers: e.controllers}, nil
	case KindCallback:
		return CallbackStrategy{}, nil
	case KindRedirect:
		return RedirectStrategy{}, nil
	case KindView:
		return ViewStrategy{Renderer: e.views}, nil
	case KindResponse:
		return ResponseStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// routeHandler adapts chi's match result into a Rule and serves it.
func (e *Engine) routeHandler(rt Route, strategy Strategy) http.HandlerFunc {
	cfg := e.config.values()

	return func(w http.ResponseWriter, r *http.Request) {
		vars := make(map[string]string)
		pattern := rt.Pattern
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if key != "*" {
					vars[key] = rctx.URLParams.Values[i]
				}
			}
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}

		rule := NewRule(RuleSpec{
			Pattern:   pattern,
			Route:     rt.Target,
			Options:   rt.Options,
			Vars:      vars,
			Config:    cfg,
			SkipAfter: rt.SkipAfter,
		})

		req := NewRequest(r)
		e.serve(w, req, true, func(env Env) (*Dispatch, error) {
			return New(strategy, req, rule, rt.Target, rt.Params, rt.Code, env), nil
		})
	}
}

// serveCached serves r from a route snapshot. It reports false on a miss.
func (e *Engine) serveCached(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	data, err := e.routeCache.Load(ctx, e.routeKey(r))
	if err != nil {
		if !errors.Is(err, routecache.ErrNotFound) {
			e.logger.WarnContext(ctx, "route cache load failed", slog.Any("error", err))
		}
		return false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		e.logger.WarnContext(ctx, "route cache entry is corrupt", slog.Any("error", err))
		return false
	}

	req := NewRequest(r)
	e.serve(w, req, false, func(env Env) (*Dispatch, error) {
		return Restore(snap, req, env, e.strategy)
	})
	return true
}

// serve runs the dispatch lifecycle: Init, the middleware chain (global, then
// route-imported), response cache interception, Run, then writes the response.
// XHR and HTMX requests bypass the response cache, since their answers depend
// on request headers the cache key does not carry.
func (e *Engine) serve(w http.ResponseWriter, req *Request, persist bool, build func(Env) (*Dispatch, error)) {
	queue := NewMiddlewareQueue(e.middlewareSet)
	slot := &ResponseCacheSlot{}
	env := Env{
		Middleware: queue,
		Cache:      slot,
		Responses:  e.responses,
		Logger:     e.logger,
		Output:     NewOutputBuffer(),
	}

	d, err := build(env)
	if err != nil {
		e.errorHandler(w, req.HTTP(), err)
		return
	}
	if _, err := d.Init(); err != nil {
		e.errorHandler(w, req.HTTP(), err)
		return
	}
	if persist && e.routeCache != nil {
		e.saveSnapshot(req, d)
	}

	run := func(ctx context.Context, r *Request) (*Response, error) {
		desc := slot.Descriptor()
		if desc == nil || e.responseCache == nil || r.IsAjax() || htmx.IsHTMX(r.HTTP()) {
			return d.Run(ctx)
		}

		cached, ok, err := e.responseCache.Lookup(ctx, desc)
		if err != nil {
			e.logger.WarnContext(ctx, "response cache lookup failed", slog.String("key", desc.Key), slog.Any("error", err))
		}
		if ok {
			return cached, nil
		}

		resp, err := d.Run(ctx)
		if err != nil {
			return nil, err
		}
		if err := e.responseCache.Store(ctx, desc, resp); err != nil {
			e.logger.WarnContext(ctx, "response cache store failed", slog.String("key", desc.Key), slog.Any("error", err))
		}
		return resp, nil
	}

	h := Chain(queue.Then(run), e.middlewares...)
	resp, err := h(req.Context(), req)
	if err != nil {
		e.errorHandler(w, req.HTTP(), err)
		return
	}
	if err := resp.Write(w); err != nil {
		e.logger.DebugContext(req.Context(), "response write failed", slog.Any("error", err))
	}
}

func (e *Engine) saveSnapshot(req *Request, d *Dispatch) {
	ctx := req.Context()
	snap, err := d.Snapshot()
	if errors.Is(err, ErrNotSerializable) {
		return
	}
	if err == nil {
		var data []byte
		if data, err = json.Marshal(snap); err == nil {
			err = e.routeCache.Save(ctx, e.routeKey(req.HTTP()), data)
		}
	}
	if err != nil {
		e.logger.WarnContext(ctx, "route cache save failed", slog.Any("dispatch", d), slog.Any("error", err))
	}
}

func (e *Engine) routeKey(r *http.Request) string {
	return routecache.Key(e.version, r.Method, r.URL.Path)
}

// routeTableVersion fingerprints the route table so snapshots from another
// table are never restored.
func routeTableVersion(routes []Route) string {
	parts := make([]string, 0, len(routes))
	for _, rt := range routes {
		opts, _ := json.Marshal(rt.Options)
		parts = append(parts, fmt.Sprintf("%s %s %s %v %v %d %t %s",
			rt.Method, rt.Pattern, rt.Kind, loggableTarget(rt.Target), rt.Params, rt.Code, rt.SkipAfter, opts))
	}
	return routecache.Key(parts...)
}

// defaultErrorHandler maps errors to status codes and writes a plain response.
func (e *Engine) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		e.logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}

	msg := http.StatusText(code)
	if httpErr := AsHTTPError(err); httpErr != nil && httpErr.Message != "" && code < http.StatusInternalServerError {
		msg = httpErr.Message
	}
	http.Error(w, msg, code)
}

// StatusCode returns the HTTP status an error maps to. Errors carrying a
// StatusCode method (HTTPError, middleware errors) choose their own.
func StatusCode(err error) int {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) && coded.StatusCode() != 0 {
		return coded.StatusCode()
	}
	switch {
	case IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownController),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, view.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
