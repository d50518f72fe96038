// Package scheduler drives the pipeline's short and long polls on fixed
// intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/observability"
	"github.com/go-co-op/gocron"
)

// Poller is the pipeline surface the scheduler drives.
type Poller interface {
	PollCurrent(ctx context.Context) error
	PollForecast(ctx context.Context) error
}

// Intervals configures how often each poll runs. A poll is bounded by its
// own interval so a stalled provider cannot pile up runs.
type Intervals struct {
	Short time.Duration
	Long  time.Duration
}

// Scheduler runs the current-conditions poll on the short interval and the
// forecast poll on the long interval. Both run once immediately on Start.
type Scheduler struct {
	scheduler *gocron.Scheduler
	poller    Poller
	intervals Intervals
	logger    *slog.Logger
	metrics   *observability.Metrics
	cancel    context.CancelFunc
}

// New creates a Scheduler. Jobs are not registered until Start.
func New(p Poller, intervals Intervals, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		poller:    p,
		intervals: intervals,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start registers both polls and starts the scheduler in the background.
// Runs in flight are canceled when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.intervals.Short <= 0 || s.intervals.Long <= 0 {
		return fmt.Errorf("poll intervals must be positive: short=%s long=%s", s.intervals.Short, s.intervals.Long)
	}
	ctx, s.cancel = context.WithCancel(ctx)

	jobs := []struct {
		kind     string
		interval time.Duration
		poll     func(context.Context) error
	}{
		{"current", s.intervals.Short, s.poller.PollCurrent},
		{"forecast", s.intervals.Long, s.poller.PollForecast},
	}
	for _, j := range jobs {
		if _, err := s.scheduler.Every(j.interval).Do(s.run, ctx, j.kind, j.interval, j.poll); err != nil {
			s.cancel()
			return fmt.Errorf("schedule %s poll: %w", j.kind, err)
		}
	}

	s.scheduler.StartAsync()
	s.metrics.PipelineRunning.Set(1)
	s.logger.Info("scheduler started", "short_poll", s.intervals.Short, "long_poll", s.intervals.Long)
	return nil
}

func (s *Scheduler) run(ctx context.Context, kind string, timeout time.Duration, poll func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := poll(runCtx); err != nil {
		s.logger.Warn("poll failed", "kind", kind, "error", err)
	}
}

// Stop cancels in-flight polls and waits for the scheduler to halt.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
	s.metrics.PipelineRunning.Set(0)
	s.logger.Info("scheduler stopped")
}
