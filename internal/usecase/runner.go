package usecase

import (
	"context"
	"log/slog"
	"time"

	"AutoPress/internal/ports"
)

// Runner binds the scheduler drivers to the pipeline: the daily crawl
// trigger, the daily topic-generation trigger, and the periodic publish
// trigger run on independent timers.
type Runner struct {
	crawlDriver    ports.Scheduler
	generateDriver ports.Scheduler
	publishDriver  ports.Scheduler
	pipeline       *Pipeline
	logger         *slog.Logger
}

// NewRunner returns a helper to start/stop the recurring jobs.
func NewRunner(crawlDriver, generateDriver, publishDriver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Runner {
	return &Runner{
		crawlDriver:    crawlDriver,
		generateDriver: generateDriver,
		publishDriver:  publishDriver,
		pipeline:       pipeline,
		logger:         logger,
	}
}

// Start registers the pipeline jobs with their drivers.
func (r *Runner) Start(ctx context.Context) error {
	if r.pipeline == nil {
		return nil
	}

	if r.crawlDriver != nil {
		err := r.crawlDriver.Start(ctx, func(time.Time) {
			if err := r.pipeline.CrawlAndDraft(ctx); err != nil {
				r.logError("crawl run failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	if r.generateDriver != nil {
		err := r.generateDriver.Start(ctx, func(time.Time) {
			if err := r.pipeline.GenerateDrafts(ctx); err != nil {
				r.logError("generation run failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	if r.publishDriver != nil {
		err := r.publishDriver.Start(ctx, func(t time.Time) {
			if err := r.pipeline.PublishDue(ctx, t); err != nil {
				r.logError("publish run failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Stop gracefully tears down the drivers.
func (r *Runner) Stop(ctx context.Context) error {
	if r.crawlDriver != nil {
		if err := r.crawlDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if r.generateDriver != nil {
		if err := r.generateDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if r.publishDriver != nil {
		return r.publishDriver.Stop(ctx)
	}
	return nil
}

func (r *Runner) logError(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
