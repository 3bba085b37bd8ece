package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"ward/internal/logging"
)

// Scheduler refreshes the catalog once at start and then periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
	catalog   *Catalog
	interval  time.Duration
	logger    *slog.Logger
	jobID     string
}

// NewScheduler wraps a gocron scheduler around c.
func NewScheduler(c *Catalog, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("catalog refresh interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		catalog:   c,
		interval:  interval,
		logger:    logging.NewComponentLogger(logger, "catalog-scheduler"),
	}, nil
}

// Start registers the refresh job and starts the scheduler. The first run
// happens immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.run(ctx) }),
		gocron.WithName("catalog-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule catalog refresh: %w", err)
	}
	s.jobID = job.ID().String()
	s.scheduler.Start()
	s.logger.Info("catalog refresh scheduled",
		logging.Duration("interval", s.interval),
		logging.String("job_id", s.jobID),
		logging.String(logging.FieldEventType, "catalog_schedule_started"),
	)
	return nil
}

// Stop shuts the scheduler down and waits for a running refresh.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// Refresh logs its own failures.
	if _, err := s.catalog.Refresh(ctx); err != nil && errors.Is(err, ErrRefreshInProgress) {
		s.logger.Debug("scheduled refresh skipped; another refresh running")
	}
}
