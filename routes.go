package routeforge

import "github.com/dmitrymomot/routeforge/internal"

// ControllerRoute declares a route dispatched to "controller@action".
func ControllerRoute(method, pattern, target string, opts ...RouteOption) Route {
	return internal.ControllerRoute(method, pattern, target, opts...)
}

// CallbackRoute declares a route dispatched to fn. Callback routes are never
// persisted in the route cache.
func CallbackRoute(method, pattern string, fn Callback, opts ...RouteOption) Route {
	return internal.CallbackRoute(method, pattern, fn, opts...)
}

// RedirectRoute declares a GET route redirecting to url.
func RedirectRoute(pattern, url string, code int, opts ...RouteOption) Route {
	return internal.RedirectRoute(pattern, url, code, opts...)
}

// ViewRoute declares a GET route rendering the named view.
func ViewRoute(pattern, name string, opts ...RouteOption) Route {
	return internal.ViewRoute(pattern, name, opts...)
}

// ResponseRoute declares a GET route answering with a static body.
func ResponseRoute(pattern string, body any, code int, opts ...RouteOption) Route {
	return internal.ResponseRoute(pattern, body, code, opts...)
}

// Options sets the route options.
func Options(o RouteOptions) RouteOption { return internal.Options(o) }

// Params sets the dispatch parameters.
func Params(p map[string]any) RouteOption { return internal.Params(p) }

// Code sets the status code override.
func Code(code int) RouteOption { return internal.Code(code) }

// SkipAfter disables post-match processing for the route.
func SkipAfter() RouteOption { return internal.SkipAfter() }

// LoadRoutes reads a YAML route table from path.
func LoadRoutes(path string) ([]Route, error) { return internal.LoadRoutes(path) }

// ParseRoutes parses a YAML route table.
func ParseRoutes(data []byte) ([]Route, error) { return internal.ParseRoutes(data) }

// Var returns a route variable converted to T.
func Var[T Scalar](r *Request, name string) T { return internal.Var[T](r, name) }

// Query returns a query parameter converted to T.
func Query[T Scalar](r *Request, name string) T { return internal.Query[T](r, name) }

// QueryDefault returns a query parameter converted to T, or defaultValue.
func QueryDefault[T Scalar](r *Request, name string, defaultValue T) T {
	return internal.QueryDefault(r, name, defaultValue)
}

// Param returns a dispatch parameter as T.
func Param[T Scalar](d *Dispatch, name string) T { return internal.Param[T](d, name) }

// CacheFor returns a cache option keyed by the request URL.
var CacheFor = internal.CacheFor

// CacheEntry returns a cache option with explicit key, expiry and tag.
var CacheEntry = internal.CacheEntry

// NewHTTPError creates an HTTPError.
var NewHTTPError = internal.NewHTTPError

// ErrNotFound creates a 404 HTTPError.
var ErrNotFound = internal.ErrNotFound
