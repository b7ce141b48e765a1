package main

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/dmitrymomot/routeforge"
)

// system serves the operational endpoints mounted under SystemConfig.Prefix.
type system struct {
	version string
	token   string
	cache   *routeforge.ResponseCache
	routes  func() []routeforge.Route
}

type routeSummary struct {
	Method  string          `json:"method"`
	Pattern string          `json:"pattern"`
	Kind    routeforge.Kind `json:"kind"`
}

func (s *system) controller() routeforge.Controller {
	return routeforge.Controller{
		"version": s.versionAction,
		"routes":  s.routesAction,
		"purge":   s.purgeAction,
	}
}

// routeTable returns the system routes under prefix.
func (s *system) routeTable(prefix string) []routeforge.Route {
	return []routeforge.Route{
		routeforge.ControllerRoute(http.MethodGet, prefix+"/version", "system@version", routeforge.SkipAfter()),
		routeforge.ControllerRoute(http.MethodGet, prefix+"/routes", "system@routes", routeforge.SkipAfter()),
		routeforge.ControllerRoute(http.MethodPost, prefix+"/cache/{tag}/purge", "system@purge", routeforge.SkipAfter()),
	}
}

// reply encodes v as JSON regardless of the configured return type.
func reply(d *routeforge.Dispatch, v any) (any, error) {
	return d.Responses().Create(v, routeforge.TypeJSON, http.StatusOK)
}

func (s *system) versionAction(_ context.Context, d *routeforge.Dispatch) (any, error) {
	return reply(d, map[string]string{"version": s.version})
}

func (s *system) routesAction(_ context.Context, d *routeforge.Dispatch) (any, error) {
	var routes []routeforge.Route
	if s.routes != nil {
		routes = s.routes()
	}
	out := make([]routeSummary, 0, len(routes))
	for _, rt := range routes {
		out = append(out, routeSummary{Method: rt.Method, Pattern: rt.Pattern, Kind: rt.Kind})
	}
	return reply(d, out)
}

func (s *system) purgeAction(ctx context.Context, d *routeforge.Dispatch) (any, error) {
	req := d.Request()
	if s.token == "" {
		return nil, routeforge.NewHTTPError(http.StatusNotFound, "cache purging is disabled")
	}
	given := req.Header("Authorization")
	if subtle.ConstantTimeCompare([]byte(given), []byte("Bearer "+s.token)) != 1 {
		return nil, routeforge.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	tag := req.RouteVar("tag")
	if s.cache != nil {
		if err := s.cache.InvalidateTag(ctx, tag); err != nil {
			return nil, err
		}
	}
	d.Logger().InfoContext(ctx, "response cache purged", "tag", tag)
	return reply(d, map[string]string{"purged": tag})
}
