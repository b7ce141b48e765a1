package internal

import (
	"context"
	"maps"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/routeforge/pkg/htmx"
)

// urlPlaceholder is replaced by the request URL in cache keys.
const urlPlaceholder = "__URL__"

// Request wraps the in-flight *http.Request with the per-request state the
// dispatch stage manages: the route-variable bag and the route-info record.
// It is not safe for concurrent use.
type Request struct {
	raw       *http.Request
	routeVars map[string]string
	routeInfo *RouteInfo
}

// NewRequest wraps r.
func NewRequest(r *http.Request) *Request {
	return &Request{
		raw:       r,
		routeVars: make(map[string]string),
	}
}

// HTTP returns the underlying *http.Request.
func (r *Request) HTTP() *http.Request {
	return r.raw
}

// Context returns the request's context.Context.
func (r *Request) Context() context.Context {
	return r.raw.Context()
}

// WithContext replaces the underlying request's context, keeping route state.
func (r *Request) WithContext(ctx context.Context) {
	r.raw = r.raw.WithContext(ctx)
}

// Method returns the HTTP method.
func (r *Request) Method() string {
	return r.raw.Method
}

// Header returns the request header value by name.
func (r *Request) Header(name string) string {
	return r.raw.Header.Get(name)
}

// SetRouteVars merges vars into the route-variable bag.
// Existing keys are overwritten, other keys are kept.
func (r *Request) SetRouteVars(vars map[string]string) {
	maps.Copy(r.routeVars, vars)
}

// RouteVars returns a copy of the route-variable bag.
func (r *Request) RouteVars() map[string]string {
	return maps.Clone(r.routeVars)
}

// RouteVar returns one route variable, or "" if unset.
func (r *Request) RouteVar(name string) string {
	return r.routeVars[name]
}

// routeInfoKey is the context key for the matched route record.
type routeInfoKey struct{}

// SetRouteInfo publishes the matched route record on the request and its
// context, where RouteInfoFromContext finds it.
func (r *Request) SetRouteInfo(info RouteInfo) {
	r.routeInfo = &info
	r.raw = r.raw.WithContext(context.WithValue(r.raw.Context(), routeInfoKey{}, info))
}

// RouteInfo returns the matched route record, if one was published.
func (r *Request) RouteInfo() (RouteInfo, bool) {
	if r.routeInfo == nil {
		return RouteInfo{}, false
	}
	return *r.routeInfo, true
}

// RouteInfoFromContext returns the route record published by SetRouteInfo.
func RouteInfoFromContext(ctx context.Context) (RouteInfo, bool) {
	info, ok := ctx.Value(routeInfoKey{}).(RouteInfo)
	return info, ok
}

// IsAjax reports whether the request was sent by a script (XHR or HTMX).
func (r *Request) IsAjax() bool {
	return htmx.IsAjax(r.raw)
}

// IsJSON reports whether the client accepts a JSON response.
func (r *Request) IsJSON() bool {
	for part := range strings.SplitSeq(r.raw.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == "application/json" || strings.HasSuffix(mt, "+json") {
			return true
		}
	}
	return false
}

// IsGet reports whether this is a GET request.
func (r *Request) IsGet() bool {
	return r.raw.Method == http.MethodGet
}

// URL returns the request URI: path plus query string.
func (r *Request) URL() string {
	return r.raw.URL.RequestURI()
}

// Cache builds the response cache descriptor for this request.
// The key is expanded with Expand. An empty key defaults to the URL.
func (r *Request) Cache(key string, expire time.Duration, tag string) *CacheDescriptor {
	if key == "" {
		key = r.URL()
	}
	return &CacheDescriptor{Key: r.Expand(key), Expire: expire, Tag: tag}
}

// Expand replaces "__URL__" in s by the request URL and ":name" by the route
// variable name.
func (r *Request) Expand(s string) string {
	s = strings.ReplaceAll(s, urlPlaceholder, r.URL())
	if !strings.Contains(s, ":") || len(r.routeVars) == 0 {
		return s
	}

	// Longest names first so ":idx" is not clobbered by ":id".
	names := slices.Collect(maps.Keys(r.routeVars))
	slices.SortFunc(names, func(a, b string) int { return len(b) - len(a) })
	for _, name := range names {
		s = strings.ReplaceAll(s, ":"+name, r.routeVars[name])
	}
	return s
}
