package pipeline

import (
	"log/slog"
	"math"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	"github.com/couchcryptid/climacell-weather-etl/internal/observability"
)

// Settings are the per-site values the transformer needs on every poll.
type Settings struct {
	Units        domain.UnitSystem
	Site         domain.SiteParameters
	ForecastDays int
}

// Transformer turns metric frames into the driver updates worth sending.
// Each driver is evaluated on its own; a value that cannot be computed is
// logged and skipped without affecting the rest of the node.
type Transformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a Transformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *Transformer {
	return &Transformer{logger: logger, metrics: metrics}
}

// Current returns the updates for the current-conditions node.
func (t *Transformer) Current(frame domain.Frame, s Settings, state domain.DriverState, force bool) []domain.DriverUpdate {
	return t.node(domain.CurrentNode, domain.CurrentDrivers, frame, s, state, force)
}

// Forecast returns the updates for each forecast node, stopping at the
// configured day count even when the series is longer. Placeholder frames for
// unrecognized intervals emit nothing. The series is not modified.
func (t *Transformer) Forecast(series domain.ForecastSeries, s Settings, state domain.DriverState, force bool) []domain.DriverUpdate {
	bounded := series.Bound(s.ForecastDays)
	out := make([]domain.DriverUpdate, 0, len(bounded)*len(domain.ForecastDrivers))
	for day := range bounded {
		if bounded[day].Err != nil {
			continue
		}
		node := domain.ForecastNode(day)
		frame := bounded[day].Clone()
		t.deriveDaily(node, &frame, s.Site)
		out = append(out, t.node(node, domain.ForecastDrivers, frame, s, state, force)...)
	}
	return out
}

// deriveDaily adds day of week and evapotranspiration to a forecast frame.
func (t *Transformer) deriveDaily(node string, frame *domain.Frame, site domain.SiteParameters) {
	if !frame.Date.IsZero() {
		frame.Set(domain.DayOfWeek, float64(frame.Date.Weekday()))
	}

	in, dayOfYear, err := domain.EToInputsFromFrame(*frame)
	if err == nil {
		var eto float64
		if eto, err = domain.ComputeETo(in, site, dayOfYear); err == nil {
			frame.Set(domain.Evapotranspiration, eto)
			return
		}
	}
	t.logger.Warn("evapotranspiration skipped", "node", node, "error", err)
	t.metrics.EToFailures.Inc()
}

func (t *Transformer) node(node string, bindings []domain.DriverBinding, frame domain.Frame, s Settings, state domain.DriverState, force bool) []domain.DriverUpdate {
	out := make([]domain.DriverUpdate, 0, len(bindings))
	for _, b := range bindings {
		u, ok := t.driver(node, b, frame, s.Units, state, force)
		if ok {
			out = append(out, u)
		}
	}
	return out
}

func (t *Transformer) driver(node string, b domain.DriverBinding, frame domain.Frame, units domain.UnitSystem, state domain.DriverState, force bool) (domain.DriverUpdate, bool) {
	metric, ok := b.Resolve(frame)
	if !ok {
		return domain.DriverUpdate{}, false
	}
	if math.IsNaN(metric) || math.IsInf(metric, 0) {
		t.logger.Warn("driver value not finite, skipping", "node", node, "driver", b.Driver, "measure", b.Measure.String())
		t.metrics.FieldErrors.WithLabelValues(b.Driver).Inc()
		return domain.DriverUpdate{}, false
	}

	display := domain.Convert(b.Measure, metric, units)
	precision := domain.Precision(b.Measure, units)

	var previous *float64
	if last, ok := state.Last(node, b.Driver); ok {
		previous = &last
	}
	if !domain.ShouldEmit(previous, display, precision, force) {
		t.metrics.UpdatesSuppressed.Inc()
		return domain.DriverUpdate{}, false
	}

	u := domain.NewDriverUpdate(node, b.Driver, b.Measure, display, units)
	state.Record(u)
	return u, true
}
