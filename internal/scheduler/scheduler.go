// Package scheduler runs the per-sport refresh pipelines on a periodic
// cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sportscanner/app-crawlers/internal/config"
	"github.com/sportscanner/app-crawlers/internal/pipeline"
)

// Scheduler triggers refreshes for every sport on a fixed interval. The
// pipeline's per-sport locks serialise overlapping invocations, so a slow
// crawl cannot stack writers on one staging table.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Scheduler.
func New(p *pipeline.Pipeline, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		pipeline: p,
		interval: interval,
		logger:   logger,
	}
}

// Run installs the refresh jobs, performs one refresh immediately and then
// blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	for _, sport := range config.AllSports() {
		sport := sport
		if _, err := s.cron.AddFunc(spec, func() {
			result := s.pipeline.RefreshSport(ctx, sport)
			s.logger.Info("Scheduled refresh finished", "summary", result.Summary())
		}); err != nil {
			return fmt.Errorf("add refresh job for %s: %w", sport, err)
		}
	}

	s.logger.Info("Scheduler starting", "interval", s.interval, "jobs", len(s.cron.Entries()))

	// Initial refresh so a fresh deployment serves data before the first
	// tick.
	for _, result := range s.pipeline.RefreshSports(ctx, config.AllSports()) {
		s.logger.Info("Initial refresh finished", "summary", result.Summary())
	}

	s.cron.Start()
	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
	return nil
}
