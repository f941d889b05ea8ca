package usecase

import (
	"context"
	"log/slog"
	"time"

	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
)

// Scheduler wires the interval driver with the admission pipeline.
type Scheduler struct {
	driver  ports.Scheduler
	fetcher *Fetcher
	request FetchRequest
	logger  *slog.Logger
}

// NewScheduler returns a helper that runs req through fetcher on every tick.
func NewScheduler(driver ports.Scheduler, fetcher *Fetcher, req FetchRequest, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{driver: driver, fetcher: fetcher, request: req, logger: logger}
}

// Start registers the fetch job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.fetcher == nil {
		return nil
	}

	job := func(trigger time.Time) {
		result, err := s.fetcher.Fetch(ctx, s.request)
		if err != nil {
			s.logger.Error("scheduled fetch failed", "trigger", trigger, "err", err)
			return
		}
		s.logger.Info("scheduled fetch completed", "trigger", trigger, "admitted", result.Total)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
