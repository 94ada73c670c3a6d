package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher reloads the weather on screen.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Scheduler periodically refreshes the dashboard.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	// skip reports errors that only mean there was nothing to refresh.
	skip func(error) bool
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds a single refresh run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithSkip marks errors that are logged at debug level instead of as failures.
func WithSkip(skip func(error) bool) Option {
	return func(s *Scheduler) { s.skip = skip }
}

// New creates a new Scheduler. An interval of zero or less disables it.
func New(target Refresher, interval time.Duration, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		target:    target,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.With("component", "scheduler"),
		skip:      func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("auto-refresh disabled")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}

	_, err := s.scheduler.Every(seconds).Seconds().WaitForSchedule().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.logger.Info("auto-refresh scheduled", "interval", s.interval)
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := s.target.Refresh(ctx)
	switch {
	case err == nil:
		s.logger.Debug("refresh completed", "duration", time.Since(start))
	case s.skip(err), errors.Is(err, context.Canceled):
		s.logger.Debug("refresh skipped", "reason", err)
	default:
		s.logger.Warn("refresh failed", "error", err, "duration", time.Since(start))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
