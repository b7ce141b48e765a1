package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	// MinLevel is the lowest level forwarded to Sentry as a log entry.
	// Errors always create Sentry issues.
	MinLevel slog.Level `yaml:"min_level"`
}

// NewWithSentry creates a logger that writes JSON to stdout and forwards
// records to Sentry. An empty DSN or a failed SDK init falls back to stdout only.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	stdout := slog.NewJSONHandler(os.Stdout, handlerOptions(slog.LevelInfo))

	if cfg.DSN == "" {
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdout).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   sentryLogLevels(cfg.MinLevel),
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(fanout{stdout, sentryHandler}, extractors...))
}

// sentryLogLevels lists the levels at or above min that Sentry stores as logs.
// Zero (Info) is treated as Warn so routine request logs stay local.
func sentryLogLevels(min slog.Level) []slog.Level {
	if min <= slog.LevelInfo {
		min = slog.LevelWarn
	}
	var levels []slog.Level
	for _, l := range []slog.Level{LevelNotice, slog.LevelWarn, slog.LevelError} {
		if l >= min {
			levels = append(levels, l)
		}
	}
	return levels
}
