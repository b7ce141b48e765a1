// Package health serves liveness and readiness probes.
//
// Liveness always answers 200. Readiness runs the registered checks
// concurrently under one deadline and answers 503 if any fails:
//
//	checks := health.Checks{
//	    "redis":       redis.Healthcheck(client),
//	    "route_cache": health.Ping(store),
//	}
//	mux.Handle("/ready", health.ReadinessHandler(checks, health.WithTimeout(2*time.Second)))
//
// Responses are plain text unless the client sends Accept: application/json
// or ?format=json, in which case the Report is encoded with per-check status,
// error and duration.
package health
