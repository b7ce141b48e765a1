package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/routeforge"
	"github.com/dmitrymomot/routeforge/pkg/db"
	"github.com/dmitrymomot/routeforge/pkg/logger"
)

var (
	ErrMissingRoutes = errors.New("config: routes file is required")
	ErrInvalidPrefix = errors.New("config: system prefix must start with /")
	ErrPurgeNoStore  = errors.New("config: route_cache.purge_schedule needs a path or postgres url")
)

// Config is the server configuration file.
type Config struct {
	Addr            string              `yaml:"addr"`
	ShutdownTimeout time.Duration       `yaml:"shutdown_timeout"`
	Routes          string              `yaml:"routes"`
	Sentry          logger.SentryConfig `yaml:"sentry"`
	Engine          routeforge.Config   `yaml:"engine"`
	Views           ViewsConfig         `yaml:"views"`
	Cache           CacheConfig         `yaml:"cache"`
	RouteCache      RouteCacheConfig    `yaml:"route_cache"`
	System          SystemConfig        `yaml:"system"`
}

// ViewsConfig points the markdown renderer at a directory.
// An empty Dir leaves only the built-in components.
type ViewsConfig struct {
	Dir    string `yaml:"dir"`
	Layout string `yaml:"layout"`

	// RawHTML keeps sanitized inline HTML in markdown views.
	RawHTML bool `yaml:"raw_html"`
}

// CacheConfig selects the response cache backend.
// Responses are cached in Redis when RedisURL is set, in memory otherwise.
type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url"`
	Prefix     string        `yaml:"prefix"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`

	// PoolSize caps Redis connections; zero keeps the client default.
	PoolSize int `yaml:"pool_size"`
}

// RouteCacheConfig enables persisted route snapshots. Postgres wins when
// both a database URL and a SQLite path are set.
type RouteCacheConfig struct {
	Path     string        `yaml:"path"`
	TTL      time.Duration `yaml:"ttl"`
	Postgres db.Config     `yaml:"postgres"`

	// PurgeSchedule is a cron expression ("0 4 * * *", "@daily") on which
	// every persisted snapshot is dropped. Empty disables purging.
	PurgeSchedule string `yaml:"purge_schedule"`
}

func (c RouteCacheConfig) enabled() bool {
	return c.Path != "" || c.Postgres.URL != ""
}

// SystemConfig mounts the system controller under Prefix.
type SystemConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
	// Token guards cache purges. Empty disables purging.
	Token string `yaml:"token"`
}

func defaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ShutdownTimeout: 30 * time.Second,
		Engine:          routeforge.DefaultConfig(),
		Cache: CacheConfig{
			Prefix:     "routeforge",
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		RouteCache: RouteCacheConfig{TTL: time.Minute, Postgres: db.DefaultConfig()},
		System:     SystemConfig{Prefix: "/_system"},
	}
}

// LoadConfig reads path, expands ${VAR} references and applies defaults
// for every field the file leaves out.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a configuration document.
func ParseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Routes == "" {
		return ErrMissingRoutes
	}
	if c.System.Enabled && !strings.HasPrefix(c.System.Prefix, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, c.System.Prefix)
	}
	if c.RouteCache.PurgeSchedule != "" && !c.RouteCache.enabled() {
		return ErrPurgeNoStore
	}
	return nil
}
