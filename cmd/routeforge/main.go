// Command routeforge serves a YAML route table.
//
// Usage:
//
//	routeforge -config routeforge.yaml
//
// The configuration file may reference environment variables as ${NAME}.
// See routeforge.example.yaml for every setting.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/routeforge"
	"github.com/dmitrymomot/routeforge/middlewares"
	"github.com/dmitrymomot/routeforge/pkg/cache"
	"github.com/dmitrymomot/routeforge/pkg/db"
	"github.com/dmitrymomot/routeforge/pkg/logger"
	"github.com/dmitrymomot/routeforge/pkg/redis"
	"github.com/dmitrymomot/routeforge/pkg/routecache"
	"github.com/dmitrymomot/routeforge/pkg/view"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "routeforge.yaml", "path to the configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.NewWithSentry(cfg.Sentry,
		middlewares.RequestIDExtractor(),
		middlewares.RouteExtractor(),
	).With("app", "routeforge", "version", version)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}

	opts := []routeforge.RunOption{
		routeforge.Logger(log),
		routeforge.ShutdownTimeout(cfg.ShutdownTimeout),
		routeforge.StartupHook(func(ctx context.Context) error {
			log.InfoContext(ctx, "routes loaded", "count", len(a.engine.Routes()), "addr", cfg.Addr)
			return nil
		}),
	}
	for _, hook := range a.startup {
		opts = append(opts, routeforge.StartupHook(hook))
	}
	// Release in reverse order of opening.
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		opts = append(opts, routeforge.ShutdownHook(a.shutdown[i]))
	}

	return a.engine.Run(cfg.Addr, opts...)
}

// app is a wired engine plus the hooks that release its resources.
type app struct {
	engine   *routeforge.Engine
	cache    *routeforge.ResponseCache
	startup  []func(context.Context) error
	shutdown []func(context.Context) error
}

// build connects the configured backends and assembles the engine.
// Resources opened before a failure are released before returning.
func build(ctx context.Context, cfg Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			if a.cache != nil {
				_ = a.cache.Close()
			}
			for i := len(a.shutdown) - 1; i >= 0; i-- {
				_ = a.shutdown[i](ctx)
			}
		}
	}()

	routes, err := routeforge.LoadRoutes(cfg.Routes)
	if err != nil {
		return nil, err
	}

	var checks []routeforge.HealthOption

	store, client, err := responseStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if client != nil {
		a.shutdown = append(a.shutdown, redis.Shutdown(client))
		checks = append(checks, routeforge.WithReadinessCheck("redis", redis.Healthcheck(client)))
	}
	a.cache = routeforge.NewResponseCache(store)

	opts := []routeforge.Option{
		routeforge.WithCustomLogger(log),
		routeforge.WithConfig(cfg.Engine),
		routeforge.WithMiddlewareSet(middlewares.Defaults(log)),
		routeforge.WithResponseCache(a.cache),
	}

	back, hooks, err := routeStore(ctx, cfg.RouteCache, log)
	a.shutdown = append(a.shutdown, hooks...)
	if err != nil {
		return nil, err
	}
	if back != nil {
		front := cache.NewMemory[[]byte](cache.WithDefaultTTL(cfg.RouteCache.TTL))
		a.shutdown = append(a.shutdown, func(context.Context) error { return front.Close() })
		tiered := routecache.NewTiered(front, back, cfg.RouteCache.TTL)
		opts = append(opts, routeforge.WithRouteCache(tiered))

		if cfg.RouteCache.PurgeSchedule != "" {
			sched, err := newPurgeScheduler(cfg.RouteCache.PurgeSchedule, tiered, log)
			if err != nil {
				return nil, err
			}
			a.startup = append(a.startup, sched.Start)
			a.shutdown = append(a.shutdown, sched.Stop)
		}
	}

	views := view.Chain{view.Components{"error": errorPage}}
	if cfg.Views.Dir != "" {
		var mdOpts []view.MarkdownOption
		if cfg.Views.Layout != "" {
			mdOpts = append(mdOpts, view.WithLayout(cfg.Views.Layout))
		}
		if cfg.Views.RawHTML {
			mdOpts = append(mdOpts, view.WithRawHTML(nil))
		}
		views = append(view.Chain{view.NewMarkdown(os.DirFS(cfg.Views.Dir), mdOpts...)}, views...)
	}
	opts = append(opts, routeforge.WithViews(views), routeforge.WithErrorHandler(errorHandler(views, log)))

	controllers := routeforge.Controllers{}
	var sys *system
	if cfg.System.Enabled {
		sys = &system{version: version, token: cfg.System.Token, cache: a.cache}
		controllers["system"] = sys.controller()
		routes = append(routes, sys.routeTable(cfg.System.Prefix)...)
	}

	opts = append(opts,
		routeforge.WithControllers(controllers),
		routeforge.WithRoutes(routes...),
		routeforge.WithHealthChecks(checks...),
	)

	a.engine = routeforge.NewEngine(opts...)
	if sys != nil {
		sys.routes = a.engine.Routes
	}
	return a, nil
}

// responseStore returns the Redis store when a URL is configured and
// the in-memory store otherwise. The client is nil for the memory store.
func responseStore(ctx context.Context, cfg CacheConfig) (routeforge.ResponseCacheStore, goredis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory[routeforge.CachedResponse](
			cache.WithDefaultTTL(cfg.TTL),
			cache.WithMaxEntries(cfg.MaxEntries),
		), nil, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := redis.Open(openCtx, cfg.RedisURL, redis.WithPoolSize(cfg.PoolSize))
	if err != nil {
		return nil, nil, fmt.Errorf("response cache: %w", err)
	}
	return cache.NewRedis[routeforge.CachedResponse](client, nil,
		cache.WithPrefix(cfg.Prefix),
		cache.WithRedisDefaultTTL(cfg.TTL),
	), client, nil
}

// routeStore opens the persistent route cache, if one is configured.
// The returned hooks release whatever was opened, even on error.
func routeStore(ctx context.Context, cfg RouteCacheConfig, log *slog.Logger) (routecache.Store, []func(context.Context) error, error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := db.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		hooks := []func(context.Context) error{db.Shutdown(pool)}
		store, err := routecache.OpenPostgres(ctx, pool, cfg.Postgres.MigrationsTable, log)
		if err != nil {
			return nil, hooks, err
		}
		return store, hooks, nil
	case cfg.Path != "":
		store, err := routecache.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, []func(context.Context) error{store.Shutdown()}, nil
	default:
		return nil, nil, nil
	}
}
