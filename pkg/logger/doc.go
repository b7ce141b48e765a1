// Package logger builds slog loggers for the dispatch server.
//
// Loggers emit JSON and run every record through a [LogHandlerDecorator] that
// adds attributes pulled from the request context (request ID, matched route):
//
//	log := logger.New(middlewares.RequestIDExtractor(), middlewares.RouteExtractor())
//	log.InfoContext(ctx, "dispatched", slog.Int("status", 200))
//
// [LevelNotice] sits between Info and Warn and is rendered as "NOTICE". The
// dispatch core uses it through [Notice] for deprecation advisories.
//
// [NewWithSentry] additionally forwards records to Sentry: errors become
// issues, records at or above SentryConfig.MinLevel become Sentry logs. With an
// empty DSN it degrades to stdout-only logging.
package logger
