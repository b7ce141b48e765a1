package internal

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route declares one route of the engine.
type Route struct {
	Target    any            `yaml:"target"`
	Params    map[string]any `yaml:"params,omitempty"`
	Options   RouteOptions   `yaml:"options,omitempty"`
	Method    string         `yaml:"method"`
	Pattern   string         `yaml:"pattern"`
	Kind      Kind           `yaml:"kind"`
	Code      int            `yaml:"code,omitempty"`
	SkipAfter bool           `yaml:"skip_after,omitempty"`
}

// RouteOption adjusts a Route built by one of the route helpers.
type RouteOption func(*Route)

// Options sets the route options.
func Options(o RouteOptions) RouteOption {
	return func(r *Route) { r.Options = o }
}

// Params sets the dispatch parameters.
func Params(p map[string]any) RouteOption {
	return func(r *Route) { r.Params = p }
}

// Code sets the status code override.
func Code(code int) RouteOption {
	return func(r *Route) { r.Code = code }
}

// SkipAfter disables post-match processing for the route.
func SkipAfter() RouteOption {
	return func(r *Route) { r.SkipAfter = true }
}

func newRoute(method, pattern string, kind Kind, target any, opts []RouteOption) Route {
	r := Route{Method: method, Pattern: pattern, Kind: kind, Target: target}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// ControllerRoute routes method and pattern to a "controller@action" target.
//
// Example:
//
//	routeforge.ControllerRoute(http.MethodGet, "/blog/{id}", "blog@show",
//	    routeforge.Options(routeforge.RouteOptions{Cache: routeforge.CacheFor(time.Minute)}),
//	)
func ControllerRoute(method, pattern, target string, opts ...RouteOption) Route {
	return newRoute(method, pattern, KindController, target, opts)
}

// CallbackRoute routes method and pattern to a closure.
func CallbackRoute(method, pattern string, fn Callback, opts ...RouteOption) Route {
	return newRoute(method, pattern, KindCallback, fn, opts)
}

// RedirectRoute redirects GET requests on pattern to url.
func RedirectRoute(pattern, url string, code int, opts ...RouteOption) Route {
	return newRoute(http.MethodGet, pattern, KindRedirect, url, append([]RouteOption{Code(code)}, opts...))
}

// ViewRoute renders the named view on GET requests to pattern.
func ViewRoute(pattern, name string, opts ...RouteOption) Route {
	return newRoute(http.MethodGet, pattern, KindView, name, opts)
}

// ResponseRoute answers GET requests on pattern with a static body.
func ResponseRoute(pattern string, body any, code int, opts ...RouteOption) Route {
	return newRoute(http.MethodGet, pattern, KindResponse, body, append([]RouteOption{Code(code)}, opts...))
}

// routeTable is the YAML route file layout.
type routeTable struct {
	Routes []Route `yaml:"routes"`
}

// LoadRoutes reads a YAML route table from path.
func LoadRoutes(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routeforge: read routes: %w", err)
	}
	return ParseRoutes(data)
}

// ParseRoutes decodes a YAML route table:
//
//	routes:
//	  - method: GET
//	    pattern: /blog/{id}
//	    kind: controller
//	    target: blog@show
//	    options:
//	      middleware: [request_id, "timeout:5s"]
//	      cache: [__URL__, 60, blog]
//	  - pattern: /old
//	    kind: redirect
//	    target: /new
//	    code: 308
//
// Method defaults to GET. Callback routes cannot be declared in YAML.
func ParseRoutes(data []byte) ([]Route, error) {
	var table routeTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("routeforge: parse routes: %w", err)
	}

	for i := range table.Routes {
		r := &table.Routes[i]
		r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
		if r.Method == "" {
			r.Method = http.MethodGet
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("routeforge: route %d: empty pattern", i)
		}
		switch r.Kind {
		case KindController, KindRedirect, KindView, KindResponse:
		case KindCallback:
			return nil, fmt.Errorf("routeforge: route %s: callback routes must be registered in code", r.Pattern)
		default:
			return nil, fmt.Errorf("%w: %q on route %s", ErrUnknownKind, r.Kind, r.Pattern)
		}
	}
	return table.Routes, nil
}
