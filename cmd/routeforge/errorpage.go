package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/routeforge"
	"github.com/dmitrymomot/routeforge/middlewares"
	"github.com/dmitrymomot/routeforge/pkg/view"
)

// errorPage is the "error" view component.
func errorPage(data map[string]any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		code, _ := data["code"].(int)
		message, _ := data["message"].(string)
		_, err := fmt.Fprintf(w,
			"<!doctype html><html><head><title>%d %s</title></head><body><h1>%d</h1><p>%s</p></body></html>",
			code, templ.EscapeString(http.StatusText(code)), code, templ.EscapeString(message),
		)
		return err
	})
}

// errorHandler renders failures as JSON for API clients and through the
// "error" view for everyone else.
func errorHandler(views view.Renderer, log *slog.Logger) routeforge.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		code := routeforge.StatusCode(err)
		if code >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}

		message := http.StatusText(code)
		var httpErr *routeforge.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != "" && code < http.StatusInternalServerError {
			message = httpErr.Message
		}

		w.Header().Set("Cache-Control", "no-store")
		if wantsJSON(r) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":      message,
				"request_id": middlewares.GetRequestID(r.Context()),
			})
			return
		}

		var buf strings.Builder
		data := map[string]any{"code": code, "message": message}
		if err := views.Render(r.Context(), &buf, "error", data); err != nil {
			http.Error(w, message, code)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, buf.String())
	}
}

func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") || strings.Contains(accept, "+json")
}
