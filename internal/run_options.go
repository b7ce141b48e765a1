package internal

import (
	"context"
	"log/slog"
	"time"
)

// RunOption configures Engine.Run.
type RunOption func(*runConfig)

type hook func(context.Context) error

type runConfig struct {
	logger          *slog.Logger
	baseCtx         context.Context
	shutdownTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	startup         []hook
	shutdown        []hook
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := runConfig{
		baseCtx:         context.Background(),
		shutdownTimeout: defaultShutdownTimeout,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		idleTimeout:     defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Logger sets the logger for server lifecycle events. Nil keeps the
// engine's logger.
func Logger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ShutdownTimeout bounds the graceful shutdown, shared by draining
// in-flight requests and the shutdown hooks. Default: 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// ServerTimeouts overrides the HTTP server read, write and idle timeouts.
// Zero values keep the defaults (15s, 30s, 120s). Write must exceed the
// slowest route's timeout middleware.
func ServerTimeouts(read, write, idle time.Duration) RunOption {
	return func(c *runConfig) {
		if read > 0 {
			c.readTimeout = read
		}
		if write > 0 {
			c.writeTimeout = write
		}
		if idle > 0 {
			c.idleTimeout = idle
		}
	}
}

// ShutdownHook registers fn to run after the server stops accepting
// requests. Hooks run in registration order and all of them run even when
// one fails.
//
//	routeforge.ShutdownHook(routeStore.Shutdown())
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.shutdown = append(c.shutdown, fn)
		}
	}
}

// StartupHook registers fn to run before the listener opens. The first
// failing hook aborts Run.
//
//	routeforge.StartupHook(scheduler.Start)
func StartupHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.startup = append(c.startup, fn)
		}
	}
}

// WithContext sets the parent of the signal context. Cancelling it
// shuts the server down like SIGTERM does.
func WithContext(ctx context.Context) RunOption {
	return func(c *runConfig) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}
