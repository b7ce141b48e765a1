package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// serve runs h on addr until the signal context ends, then drains
// in-flight requests and runs the shutdown hooks.
func serve(addr string, h http.Handler, cfg runConfig) error {
	if addr == "" {
		addr = ":8080"
	}
	log := cfg.logger

	ctx, stop := signal.NotifyContext(cfg.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i, fn := range cfg.startup {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("routeforge: startup hook %d: %w", i, err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("routeforge: listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.readTimeout,
		WriteTimeout:      cfg.writeTimeout,
		IdleTimeout:       cfg.idleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	served := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("address", ln.Addr().String()))
		served <- srv.Serve(ln)
	}()

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.shutdownTimeout))
	return shutdown(srv, cfg, log)
}

// shutdown stops srv and then runs every hook under one deadline.
func shutdown(srv *http.Server, cfg runConfig, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("routeforge: drain: %w", err))
	}
	for i, fn := range cfg.shutdown {
		if err := fn(ctx); err != nil {
			log.Error("shutdown hook failed", slog.Int("hook", i), slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
