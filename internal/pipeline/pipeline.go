package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	"github.com/couchcryptid/climacell-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher retrieves raw provider payloads for the configured site.
type Fetcher interface {
	FetchCurrent(ctx context.Context) ([]byte, error)
	FetchForecast(ctx context.Context, days int) ([]byte, error)
}

// BatchLoader writes driver updates to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, updates []domain.DriverUpdate) error
}

const (
	kindCurrent  = "current"
	kindForecast = "forecast"
)

// Pipeline runs one fetch-normalize-emit cycle per poll. Polls are serialized
// so a normalization pass always completes before the next one starts.
type Pipeline struct {
	fetcher     Fetcher
	transformer *Transformer
	loader      BatchLoader
	state       *DriverStore
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool

	mu            sync.Mutex
	settings      Settings
	forceCurrent  bool
	forceForecast bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used to time polls.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline. The first poll of each kind re-sends every driver.
func New(f Fetcher, l BatchLoader, settings Settings, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	metrics.ForecastDays.Set(float64(settings.ForecastDays))
	p := &Pipeline{
		fetcher:       f,
		transformer:   NewTransformer(logger, metrics),
		loader:        l,
		state:         NewDriverStore(),
		logger:        logger,
		metrics:       metrics,
		clock:         clockwork.NewRealClock(),
		settings:      settings,
		forceCurrent:  true,
		forceForecast: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a poll has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a poll yet")
	}
	return nil
}

// Snapshot returns the last emitted value of every driver on every node.
func (p *Pipeline) Snapshot() []domain.DriverUpdate {
	return p.state.Snapshot()
}

// Settings returns the settings the next poll will use.
func (p *Pipeline) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// Reconfigure replaces the site settings. A change of unit system forces every
// driver to be re-sent on the next poll of each kind. Shrinking the forecast
// drops the state of days no longer polled; growing it forces a forecast resend.
func (p *Pipeline) Reconfigure(s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.Units != p.settings.Units {
		p.logger.Info("unit system changed, forcing full resend",
			"from", p.settings.Units.String(), "to", s.Units.String())
		p.forceCurrent = true
		p.forceForecast = true
	}
	if s.ForecastDays != p.settings.ForecastDays {
		p.logger.Info("forecast days changed", "from", p.settings.ForecastDays, "to", s.ForecastDays)
		p.state.DropForecastFrom(max(s.ForecastDays, 0))
		if s.ForecastDays > p.settings.ForecastDays {
			p.forceForecast = true
		}
	}
	p.settings = s
	p.metrics.ForecastDays.Set(float64(s.ForecastDays))
}

// PollCurrent fetches and emits current conditions.
func (p *Pipeline) PollCurrent(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.clock.Now()
	frames, err := p.fetchAndNormalize(ctx, kindCurrent, domain.ModeCurrent, func(ctx context.Context) ([]byte, error) {
		return p.fetcher.FetchCurrent(ctx)
	})
	if err != nil {
		return err
	}

	updates := p.transformer.Current(frames[0], p.settings, p.state, p.forceCurrent)
	p.forceCurrent = false
	p.finish(ctx, kindCurrent, updates, start)
	return nil
}

// PollForecast fetches and emits the daily forecast. It is a no-op when no
// forecast days are configured.
func (p *Pipeline) PollForecast(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	days := p.settings.ForecastDays
	if days <= 0 {
		p.logger.Debug("forecast disabled, skipping poll")
		return nil
	}

	start := p.clock.Now()
	frames, err := p.fetchAndNormalize(ctx, kindForecast, domain.ModeForecast, func(ctx context.Context) ([]byte, error) {
		return p.fetcher.FetchForecast(ctx, days)
	})
	if err != nil {
		return err
	}
	if len(frames) > days {
		p.logger.Debug("provider returned extra forecast days", "received", len(frames), "configured", days)
	}
	for day, frame := range domain.ForecastSeries(frames).Bound(days) {
		if frame.Err != nil {
			p.logger.Warn("forecast interval skipped", "node", domain.ForecastNode(day), "error", frame.Err)
			p.metrics.IntervalsSkipped.Inc()
		}
	}

	updates := p.transformer.Forecast(domain.ForecastSeries(frames), p.settings, p.state, p.forceForecast)
	p.forceForecast = false
	p.finish(ctx, kindForecast, updates, start)
	return nil
}

func (p *Pipeline) fetchAndNormalize(ctx context.Context, kind string, mode domain.Mode, fetch func(context.Context) ([]byte, error)) ([]domain.Frame, error) {
	payload, err := fetch(ctx)
	if err != nil {
		p.logger.Error("fetch failed", "kind", kind, "error", err)
		p.metrics.PollsTotal.WithLabelValues(kind, "fetch_error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}

	frames, err := domain.Normalize(payload, mode)
	if err != nil {
		p.logger.Error("payload rejected", "kind", kind, "error", err)
		p.metrics.PollsTotal.WithLabelValues(kind, "schema_error").Inc()
		return nil, err
	}
	return frames, nil
}

// finish sends the updates and records the poll. Sink failures are logged and
// counted but do not fail the poll.
func (p *Pipeline) finish(ctx context.Context, kind string, updates []domain.DriverUpdate, start time.Time) {
	if len(updates) > 0 {
		if err := p.loader.LoadBatch(ctx, updates); err != nil {
			p.logger.Error("load batch failed", "kind", kind, "error", err, "batch_size", len(updates))
			p.metrics.SinkErrors.Inc()
		} else {
			p.metrics.UpdatesEmitted.Add(float64(len(updates)))
		}
	}

	p.metrics.PollsTotal.WithLabelValues(kind, "success").Inc()
	p.metrics.PollDuration.WithLabelValues(kind).Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Debug("poll complete", "kind", kind, "updates", len(updates))
}
