// Package internal implements the routeforge dispatch stage.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/routeforge" instead, which re-exports the public API.
//
// # Lifecycle
//
// The router matches a request and hands a Rule (pattern, target, options,
// bound variables, config) to New, which pairs it with a Strategy:
//
//	d := internal.New(strategy, req, rule, target, params, code, env)
//	if _, err := d.Init(); err != nil { ... } // post-match side effects
//	resp, err := d.Run(ctx)                   // execute and coerce
//
// Init publishes the bound variables and a RouteInfo record on the Request and
// applies the route options: middleware names are imported into the
// MiddlewareQueue, headers are captured, a GET route with a cache option
// registers a CacheDescriptor, and append variables are merged.
//
// Run executes the strategy and turns its ExecResult into a Response. A
// ResponseResult passes through unchanged, a DataResult is encoded with the
// configured default return type (or the ajax type for script requests), and
// an EmptyResult drains whatever the strategy wrote to the output sink.
// Captured headers are added without replacing headers the response already
// carries.
//
// # Strategies
//
// Five kinds are built in: controller ("blog@show"), callback (a Go func),
// redirect (URL with :name placeholders), view (a named template) and
// response (a static body). The Engine resolves kinds to strategies; a custom
// StrategyResolver can be passed to Restore.
//
// # Snapshots
//
// A Dispatch serializes to a Snapshot when its target and params are built
// from strings, bools, int, int64, uint64, float64, []byte, json.RawMessage,
// []string, map[string]string, []any and map[string]any. Each value is stored
// with its Go type and restored as the same type. Other values, closures
// included, yield ErrNotSerializable and the dispatch is not persisted. The Engine
// keeps snapshots in a routecache.Store keyed by route table version, method
// and path, and restores them on later requests without consulting the router.
//
// # Errors
//
// Errors returned from Init, Run or middleware go to the ErrorHandler.
// StatusCode maps them to HTTP status codes: HTTPError and any error with a
// StatusCode method choose their own, unknown controllers and views are 404.
package internal
