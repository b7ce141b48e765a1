package routeforge

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/routeforge/internal"
	"github.com/dmitrymomot/routeforge/pkg/cache"
	"github.com/dmitrymomot/routeforge/pkg/health"
	"github.com/dmitrymomot/routeforge/pkg/logger"
	"github.com/dmitrymomot/routeforge/pkg/routecache"
	"github.com/dmitrymomot/routeforge/pkg/view"
)

// Type aliases - public API
type (
	// Engine matches requests against routes and runs the dispatch stage.
	Engine = internal.Engine

	// Option configures the engine.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// Config holds the values rules expose through Rule.Config.
	Config = internal.Config

	// Handler is the dispatch-level handler signature middleware wraps.
	Handler = internal.Handler

	// Middleware wraps a Handler.
	Middleware = internal.Middleware

	// MiddlewareFactory builds middleware from route spec arguments.
	MiddlewareFactory = internal.MiddlewareFactory

	// MiddlewareSet maps names usable in a route's middleware option to factories.
	MiddlewareSet = internal.MiddlewareSet

	// MiddlewareQueue collects route-imported middleware for one request.
	MiddlewareQueue = internal.MiddlewareQueue

	// ErrorHandler handles errors returned from the dispatch stage.
	ErrorHandler = internal.ErrorHandler

	// ContextExtractor extracts a log attribute from context.
	ContextExtractor = logger.ContextExtractor
)

// Request, response and route types
type (
	// Request wraps the in-flight request with route variables and route info.
	Request = internal.Request

	// Response is the outgoing payload.
	Response = internal.Response

	// ResponseFactory builds responses from data and a type hint.
	ResponseFactory = internal.ResponseFactory

	// Encoder encodes data for one response type.
	Encoder = internal.Encoder

	// Encoders is the default ResponseFactory.
	Encoders = internal.Encoders

	// Rule is a matched route.
	Rule = internal.Rule

	// RuleSpec describes a MatchedRule.
	RuleSpec = internal.RuleSpec

	// MatchedRule is the engine's Rule implementation.
	MatchedRule = internal.MatchedRule

	// RouteOptions are the per-route options.
	RouteOptions = internal.RouteOptions

	// CacheOption is the route cache option.
	CacheOption = internal.CacheOption

	// RouteInfo is the introspectable record of the matched route.
	RouteInfo = internal.RouteInfo

	// Route declares one entry of the route table.
	Route = internal.Route

	// RouteOption configures a Route built by a constructor.
	RouteOption = internal.RouteOption

	// Scalar is the set of types typed accessors convert to.
	Scalar = internal.Scalar
)

// Dispatch types
type (
	// Dispatch turns a matched rule into a response.
	Dispatch = internal.Dispatch

	// Env holds the collaborators of a Dispatch.
	Env = internal.Env

	// Snapshot is the persisted form of a Dispatch.
	Snapshot = internal.Snapshot

	// Kind names a dispatch strategy.
	Kind = internal.Kind

	// Strategy performs the action behind a matched route.
	Strategy = internal.Strategy

	// StrategyResolver maps a persisted kind to a strategy.
	StrategyResolver = internal.StrategyResolver

	// ExecResult is what a strategy produced.
	ExecResult = internal.ExecResult

	// ResponseResult carries a built response.
	ResponseResult = internal.ResponseResult

	// DataResult carries data to encode.
	DataResult = internal.DataResult

	// EmptyResult means the strategy wrote to the output sink or produced nothing.
	EmptyResult = internal.EmptyResult

	// OutputSink receives content strategies write instead of returning data.
	OutputSink = internal.OutputSink

	// OutputBuffer is the default OutputSink.
	OutputBuffer = internal.OutputBuffer

	// Action handles a controller route.
	Action = internal.Action

	// Controller maps action names to actions.
	Controller = internal.Controller

	// Controllers maps controller names to controllers.
	Controllers = internal.Controllers

	// Callback handles a closure route.
	Callback = internal.Callback
)

// Cache types
type (
	// CacheDescriptor identifies a cached response.
	CacheDescriptor = internal.CacheDescriptor

	// ResponseCacheSlot records the descriptor registered for a request.
	ResponseCacheSlot = internal.ResponseCacheSlot

	// ResponseCache stores whole responses for routes with a cache option.
	ResponseCache = internal.ResponseCache

	// CachedResponse is the stored form of a response.
	CachedResponse = internal.CachedResponse

	// ResponseCacheStore is the backend a ResponseCache writes to.
	ResponseCacheStore = cache.TaggedCache[internal.CachedResponse]
)

// Error types
type (
	// HTTPError carries a status code and message for the error handler.
	HTTPError = internal.HTTPError

	// ValidationError reports invalid input and renders as 422.
	ValidationError = internal.ValidationError
)

// Dispatch strategy kinds.
const (
	KindController = internal.KindController
	KindCallback   = internal.KindCallback
	KindRedirect   = internal.KindRedirect
	KindView       = internal.KindView
	KindResponse   = internal.KindResponse
)

// Response types understood by the default encoders.
const (
	TypeAuto = internal.TypeAuto
	TypeJSON = internal.TypeJSON
	TypeXML  = internal.TypeXML
	TypeHTML = internal.TypeHTML
	TypeText = internal.TypeText
)

// Config keys rules answer through Rule.Config.
const (
	ConfigDefaultReturnType = internal.ConfigDefaultReturnType
	ConfigDefaultAjaxReturn = internal.ConfigDefaultAjaxReturn
	ConfigURLConvert        = internal.ConfigURLConvert
)

// Sentinel errors.
var (
	ErrUnknownMiddleware = internal.ErrUnknownMiddleware
	ErrUnknownController = internal.ErrUnknownController
	ErrUnknownAction     = internal.ErrUnknownAction
	ErrInvalidTarget     = internal.ErrInvalidTarget
	ErrNotSerializable   = internal.ErrNotSerializable
	ErrInvalidSnapshot   = internal.ErrInvalidSnapshot
	ErrUnknownKind       = internal.ErrUnknownKind
	ErrOutputDrained     = internal.ErrOutputDrained
	ErrViewNotConfigured = internal.ErrViewNotConfigured
	ErrUnsupportedType   = internal.ErrUnsupportedType
)

// NewEngine creates an engine with the given options.
//
// Example:
//
//	engine := routeforge.NewEngine(
//	    routeforge.WithLogger("web", middlewares.RequestIDExtractor()),
//	    routeforge.WithControllers(routeforge.Controllers{"blog": blog.Actions()}),
//	    routeforge.WithRoutes(routes...),
//	)
//	if err := engine.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
func NewEngine(opts ...Option) *Engine {
	return internal.NewEngine(opts...)
}

// New creates a Dispatch for a matched rule.
func New(s Strategy, req *Request, rule Rule, target any, params map[string]any, code int, env Env) *Dispatch {
	return internal.New(s, req, rule, target, params, code, env)
}

// Restore rebuilds a Dispatch from a snapshot.
func Restore(s Snapshot, req *Request, env Env, resolve StrategyResolver) (*Dispatch, error) {
	return internal.Restore(s, req, env, resolve)
}

// NewRequest wraps r for the dispatch stage.
func NewRequest(r *http.Request) *Request {
	return internal.NewRequest(r)
}

// NewResponse creates a response with an already-encoded body.
func NewResponse(status int, body []byte, header http.Header) *Response {
	return internal.NewResponse(status, body, header)
}

// NewRule builds an immutable rule.
func NewRule(spec RuleSpec) *MatchedRule {
	return internal.NewRule(spec)
}

// NewResponseCache wraps a tagged cache store.
func NewResponseCache(store ResponseCacheStore) *ResponseCache {
	return internal.NewResponseCache(store)
}

// NewMiddlewareQueue returns an empty queue resolving names from set.
func NewMiddlewareQueue(set MiddlewareSet) *MiddlewareQueue {
	return internal.NewMiddlewareQueue(set)
}

// NewOutputBuffer returns an empty output buffer.
func NewOutputBuffer() *OutputBuffer {
	return internal.NewOutputBuffer()
}

// DefaultEncoders returns encoders for json, xml, html, text and auto.
func DefaultEncoders() Encoders {
	return internal.DefaultEncoders()
}

// DefaultConfig returns html responses, json for ajax, and case conversion on.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// ResultOf wraps a strategy return value in an ExecResult.
func ResultOf(v any) ExecResult {
	return internal.ResultOf(v)
}

// Chain wraps h with mws, first middleware outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	return internal.Chain(h, mws...)
}

// Static returns a middleware factory that ignores arguments.
func Static(mw Middleware) MiddlewareFactory {
	return internal.Static(mw)
}

// RouteInfoFromContext returns the matched route record.
func RouteInfoFromContext(ctx context.Context) (RouteInfo, bool) {
	return internal.RouteInfoFromContext(ctx)
}

// StatusCode returns the HTTP status an error maps to.
func StatusCode(err error) int {
	return internal.StatusCode(err)
}

// Engine options

// WithLogger creates a JSON logger with a component name and optional extractors.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithConfig sets the config exposed to rules.
func WithConfig(cfg Config) Option {
	return internal.WithConfig(cfg)
}

// WithMiddlewareSet registers named middleware for route middleware options.
func WithMiddlewareSet(set MiddlewareSet) Option {
	return internal.WithMiddlewareSet(set)
}

// WithMiddleware adds global middleware.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithResponseCache enables the response cache.
func WithResponseCache(c *ResponseCache) Option {
	return internal.WithResponseCache(c)
}

// WithRouteCache persists matched routes in s.
func WithRouteCache(s routecache.Store) Option {
	return internal.WithRouteCache(s)
}

// WithControllers registers controllers.
func WithControllers(c Controllers) Option {
	return internal.WithControllers(c)
}

// WithViews sets the renderer for view routes.
func WithViews(r view.Renderer) Option {
	return internal.WithViews(r)
}

// WithResponseFactory replaces the default encoders.
func WithResponseFactory(f ResponseFactory) Option {
	return internal.WithResponseFactory(f)
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithRoutes registers routes.
func WithRoutes(routes ...Route) Option {
	return internal.WithRoutes(routes...)
}

// WithHealthChecks enables liveness and readiness endpoints.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Logger sets the server lifecycle logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the graceful shutdown timeout.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// ServerTimeouts overrides the HTTP server read, write and idle timeouts.
func ServerTimeouts(read, write, idle time.Duration) RunOption {
	return internal.ServerTimeouts(read, write, idle)
}

// StartupHook registers a function run before the server listens.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function run during shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}
