// Package redis opens go-redis clients for the Redis response cache backend.
//
// [Open] validates the URL, applies pool and timeout options, and retries PING
// during startup so the server does not come up with a dead cache. [Shutdown]
// adapts the client to a runtime shutdown hook.
package redis
