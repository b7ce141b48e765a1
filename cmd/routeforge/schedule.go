package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/routeforge/pkg/routecache"
)

// scheduler runs periodic maintenance for the route cache.
type scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// newPurgeScheduler purges store on every tick of the five-field cron
// expression spec.
func newPurgeScheduler(spec string, store routecache.Purger, log *slog.Logger) (*scheduler, error) {
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLogger(cronLogger{log}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
	)

	if _, err := c.AddFunc(spec, func() {
		if err := store.Purge(context.Background()); err != nil {
			log.Error("route cache purge failed", "error", err)
			return
		}
		log.Info("route cache purged")
	}); err != nil {
		return nil, fmt.Errorf("route cache: invalid purge schedule %q: %w", spec, err)
	}

	return &scheduler{cron: c, log: log}, nil
}

// Start is a startup hook.
func (s *scheduler) Start(context.Context) error {
	s.cron.Start()
	return nil
}

// Stop is a shutdown hook. It waits for a running purge to finish.
func (s *scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, append(keysAndValues, "component", "cron")...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "component", "cron", "error", err)...)
}
