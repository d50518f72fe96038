package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climacell_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the weather pipeline.
type Metrics struct {
	PollsTotal      *prometheus.CounterVec   // labels: kind={current,forecast}, outcome={success,fetch_error,schema_error}
	PollDuration    *prometheus.HistogramVec // labels: kind={current,forecast}
	PipelineRunning prometheus.Gauge
	ForecastDays    prometheus.Gauge

	// Per-driver outcomes.
	UpdatesEmitted    prometheus.Counter
	UpdatesSuppressed prometheus.Counter
	FieldErrors       *prometheus.CounterVec // labels: driver
	EToFailures       prometheus.Counter
	IntervalsSkipped  prometheus.Counter
	SinkErrors        prometheus.Counter

	// Provider metrics.
	ProviderRequests    *prometheus.CounterVec   // labels: endpoint={current,forecast}, outcome={success,error,breaker_open}
	ProviderAPIDuration *prometheus.HistogramVec // labels: endpoint={current,forecast}
}

func newMetrics() *Metrics {
	return &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Provider polls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-emit cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the scheduler is active, 0 when shut down.",
		}),
		ForecastDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_days",
			Help:      "Number of forecast days processed per long poll.",
		}),
		UpdatesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_updates_emitted_total",
			Help:      "Driver updates sent to the sink.",
		}),
		UpdatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_updates_suppressed_total",
			Help:      "Driver updates skipped because the display value did not change.",
		}),
		FieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "Driver values that could not be computed.",
		}, []string{"driver"}),
		EToFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eto_failures_total",
			Help:      "Forecast days without an evapotranspiration value.",
		}),
		IntervalsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intervals_skipped_total",
			Help:      "Forecast intervals within the configured days that matched no payload shape.",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed driver update batches.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Weather provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_api_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PollsTotal,
		m.PollDuration,
		m.PipelineRunning,
		m.ForecastDays,
		m.UpdatesEmitted,
		m.UpdatesSuppressed,
		m.FieldErrors,
		m.EToFailures,
		m.IntervalsSkipped,
		m.SinkErrors,
		m.ProviderRequests,
		m.ProviderAPIDuration,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
