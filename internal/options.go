package internal

import (
	"log/slog"

	"github.com/dmitrymomot/routeforge/pkg/logger"
	"github.com/dmitrymomot/routeforge/pkg/routecache"
	"github.com/dmitrymomot/routeforge/pkg/view"
)

// Option configures the engine.
type Option func(*Engine)

// WithLogger creates a logger with a component name and optional extractors.
// The component name is added to every log entry for easy filtering.
// Extractors pull values from context (e.g., request_id, route).
//
// Example:
//
//	routeforge.NewEngine(
//	    routeforge.WithLogger("web", middlewares.RequestIDExtractor(), middlewares.RouteExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(e *Engine) {
		e.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig sets the engine config rules expose through Rule.Config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithMiddlewareSet sets the named middleware routes can import through their
// middleware option. Later calls add to earlier ones.
//
// Example:
//
//	routeforge.WithMiddlewareSet(middlewares.Defaults(log))
func WithMiddlewareSet(set MiddlewareSet) Option {
	return func(e *Engine) {
		if e.middlewareSet == nil {
			e.middlewareSet = make(MiddlewareSet, len(set))
		}
		for name, f := range set {
			e.middlewareSet[name] = f
		}
	}
}

// WithMiddleware adds global middleware, applied to every dispatched route
// before route-imported middleware. Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) {
		e.middlewares = append(e.middlewares, mw...)
	}
}

// WithResponseCache enables the response cache used by the route cache option.
//
// Example:
//
//	store := cache.NewMemory[routeforge.CachedResponse](cache.WithMaxEntries(10_000))
//	routeforge.WithResponseCache(routeforge.NewResponseCache(store))
func WithResponseCache(c *ResponseCache) Option {
	return func(e *Engine) {
		e.responseCache = c
	}
}

// WithRouteCache persists matched routes so repeated requests skip route matching.
func WithRouteCache(s routecache.Store) Option {
	return func(e *Engine) {
		e.routeCache = s
	}
}

// WithControllers registers controllers for controller routes.
// Later calls add to earlier ones.
func WithControllers(c Controllers) Option {
	return func(e *Engine) {
		if e.controllers == nil {
			e.controllers = make(Controllers, len(c))
		}
		for name, ctrl := range c {
			e.controllers[name] = ctrl
		}
	}
}

// WithViews sets the renderer for view routes.
func WithViews(r view.Renderer) Option {
	return func(e *Engine) {
		e.views = r
	}
}

// WithResponseFactory replaces the default encoders.
func WithResponseFactory(f ResponseFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.responses = f
		}
	}
}

// WithErrorHandler sets a custom error handler for dispatch errors.
//
// Example:
//
//	routeforge.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
//	    code := routeforge.StatusCode(err)
//	    w.WriteHeader(code)
//	    _ = pages.Error(code).Render(r.Context(), w)
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(e *Engine) {
		e.errorHandler = h
	}
}

// WithRoutes registers routes. Later calls add to earlier ones.
func WithRoutes(routes ...Route) Option {
	return func(e *Engine) {
		e.routes = append(e.routes, routes...)
	}
}
