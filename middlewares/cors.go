package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/routeforge/internal"
)

// CORSConfig configures CORS.
type CORSConfig struct {
	// AllowOrigins lists accepted origins. An entry is an exact origin,
	// "*" for any origin, or a subdomain pattern such as
	// "https://*.example.com".
	AllowOrigins []string

	// AllowOriginFunc replaces AllowOrigins when set.
	AllowOriginFunc func(origin string) bool

	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string

	// AllowCredentials echoes the request origin instead of "*".
	AllowCredentials bool

	// MaxAge is sent on preflight answers; zero omits the header.
	MaxAge time.Duration
}

// DefaultCORSConfig allows any origin without credentials.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
}

// CORS returns middleware that adds CORS headers for allowed origins and
// answers preflight requests with 204. Preflight only reaches it on routes
// whose method list accepts OPTIONS.
func CORS(cfg CORSConfig) internal.Middleware {
	allow := newOriginMatcher(cfg)

	preflight := http.Header{}
	preflight.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
	preflight.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
	if cfg.MaxAge > 0 {
		preflight.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
	}
	expose := strings.Join(cfg.ExposeHeaders, ", ")

	return func(next internal.Handler) internal.Handler {
		return func(ctx context.Context, r *internal.Request) (*internal.Response, error) {
			origin := r.Header("Origin")
			if origin == "" || !allow.match(origin) {
				return next(ctx, r)
			}

			h := http.Header{}
			h.Add("Vary", "Origin")
			if cfg.AllowCredentials || !allow.any {
				h.Set("Access-Control-Allow-Origin", origin)
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if r.Method() == http.MethodOptions {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				for name, values := range preflight {
					h[name] = values
				}
				return internal.NewResponse(http.StatusNoContent, nil, h), nil
			}

			resp, err := next(ctx, r)
			if resp != nil {
				mergeHeaders(resp.Header(), h)
			}
			return resp, err
		}
	}
}

// corsFactory builds CORS from "cors" or "cors:<origin>,<origin>" specs.
// Without arguments every origin is allowed.
func corsFactory(args ...string) (internal.Middleware, error) {
	cfg := DefaultCORSConfig()
	if len(args) == 0 {
		return CORS(cfg), nil
	}
	for _, origin := range args {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(strings.Replace(origin, "*.", "", 1))
		if err != nil || u.Scheme == "" || u.Host == "" || u.Path != "" {
			return nil, fmt.Errorf("%w: cors origin %q", ErrInvalidArgs, origin)
		}
	}
	cfg.AllowOrigins = args
	return CORS(cfg), nil
}

// mergeHeaders copies src into dst, appending to Vary and replacing the rest.
func mergeHeaders(dst, src http.Header) {
	for name, values := range src {
		if name == "Vary" {
			for _, v := range values {
				dst.Add(name, v)
			}
			continue
		}
		dst[name] = values
	}
}

type originMatcher struct {
	fn       func(string) bool
	any      bool
	exact    []string
	wildcard []subdomainPattern
}

// subdomainPattern matches "https://*.example.com" as prefix "https://"
// and suffix ".example.com" with at least one label in between.
type subdomainPattern struct {
	prefix, suffix string
}

func newOriginMatcher(cfg CORSConfig) originMatcher {
	m := originMatcher{fn: cfg.AllowOriginFunc}
	for _, o := range cfg.AllowOrigins {
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			m.wildcard = append(m.wildcard, subdomainPattern{prefix: scheme + "://", suffix: host})
		default:
			m.exact = append(m.exact, o)
		}
	}
	return m
}

func (m originMatcher) match(origin string) bool {
	if m.fn != nil {
		return m.fn(origin)
	}
	if m.any || slices.Contains(m.exact, origin) {
		return true
	}
	for _, p := range m.wildcard {
		rest, ok := strings.CutPrefix(origin, p.prefix)
		if ok && len(rest) > len(p.suffix) && strings.HasSuffix(rest, p.suffix) {
			return true
		}
	}
	return false
}
