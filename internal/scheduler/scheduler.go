package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weatherlab/internal/weather"
)

// jobTimeout bounds a single refresh run.
const jobTimeout = 30 * time.Second

// Refresher re-resolves the tracked location.
type Refresher interface {
	Refresh(ctx context.Context) (weather.Record, weather.Outcome, error)
}

// Scheduler periodically refreshes the tracked location's weather.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A zero interval disables the job.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	rec, outcome, err := s.refresher.Refresh(ctx)
	switch {
	case errors.Is(err, weather.ErrNothingTracked):
		s.logger.Debug("scheduler: nothing to refresh")
	case err != nil:
		s.logger.Error("scheduler: refresh failed", "error", err)
	case outcome == weather.Applied:
		s.logger.Info("scheduler: refreshed", "key", rec.Key, "fallback", rec.Fallback)
	default:
		s.logger.Info("scheduler: refresh not applied", "outcome", outcome.String())
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
