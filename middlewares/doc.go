// Package middlewares provides request middleware for routeforge engines.
//
// Middleware can be applied to every route with WithMiddleware, or imported by
// name from a route's middleware option once registered with WithMiddlewareSet.
// Defaults returns the stock named set.
//
// # Request ID
//
// RequestID assigns a unique ID to each request, reusing an incoming
// X-Request-ID header or generating a UUIDv7. Use RequestIDExtractor with
// WithLogger to add request_id to every log entry:
//
//	engine := routeforge.NewEngine(
//	    routeforge.WithLogger("web", middlewares.RequestIDExtractor(), middlewares.RouteExtractor()),
//	    routeforge.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover and Timeout
//
// Recover converts panics to PanicError and Timeout converts deadline overruns
// to TimeoutError. Both record the matched rule and report their own status
// code (500 and 504), which routeforge.StatusCode honours.
//
// # CORS and Headers
//
// CORS answers preflight requests on routes that accept OPTIONS and decorates
// responses of allowed origins. Origins are exact, "*" or subdomain patterns
// like "https://*.example.com". Headers sets fixed response headers.
//
// # Route middleware
//
//	routes:
//	  - pattern: /api/report
//	    kind: controller
//	    target: report@build
//	    options:
//	      middleware: [request_id, recover, "timeout:2s", "cors:https://app.example.com", "header:Cache-Control=no-store"]
//
// Recommended order for global middleware:
//
//	routeforge.WithMiddleware(
//	    middlewares.CORS(middlewares.DefaultCORSConfig()), // preflight first
//	    middlewares.RequestID(),                           // ID for all later logging
//	    middlewares.Recover(),                             // panics from timeout and handlers
//	    middlewares.Timeout(5*time.Second),
//	)
package middlewares
