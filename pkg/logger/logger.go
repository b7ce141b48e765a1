package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelNotice sits between Info and Warn. It marks conditions that are not
// errors but that operators should act on, such as deprecated route options.
const LevelNotice = slog.Level(2)

// New creates a JSON logger on stdout at Info level with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewJSON(os.Stdout, slog.LevelInfo, extractors...)
}

// NewJSON creates a JSON logger writing to w.
// Records at LevelNotice are rendered with level "NOTICE".
func NewJSON(w io.Writer, level slog.Leveler, extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(w, handlerOptions(level))
	return slog.New(NewLogHandlerDecorator(h, extractors...))
}

// NewNope creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Notice logs msg at LevelNotice.
func Notice(ctx context.Context, l *slog.Logger, msg string, args ...any) {
	if l == nil {
		return
	}
	l.Log(ctx, LevelNotice, msg, args...)
}

func handlerOptions(level slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelNotice {
					a.Value = slog.StringValue("NOTICE")
				}
			}
			return a
		},
	}
}
