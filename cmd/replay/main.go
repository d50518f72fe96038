// Command replay runs a saved provider payload through the normalization and
// driver pipeline offline and prints the driver updates it would emit.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -payload internal/domain/testdata/v4_forecast_10d.json \
//	  -mode forecast -days 5 -units us -lat 44.98 -elevation 250
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/config"
	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	"github.com/couchcryptid/climacell-weather-etl/internal/observability"
	"github.com/couchcryptid/climacell-weather-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

type options struct {
	payload   string
	mode      string
	days      int
	units     string
	latitude  float64
	elevation float64
	plant     float64
	format    string
	at        string
}

func main() {
	var opts options
	flag.StringVar(&opts.payload, "payload", "", "path to a provider JSON payload")
	flag.StringVar(&opts.mode, "mode", "current", "payload kind: current or forecast")
	flag.IntVar(&opts.days, "days", config.MaxForecastDays, "forecast days to process")
	flag.StringVar(&opts.units, "units", "us", "unit system: us, metric, uk")
	flag.Float64Var(&opts.latitude, "lat", 0, "site latitude in degrees")
	flag.Float64Var(&opts.elevation, "elevation", 0, "site elevation in metres")
	flag.Float64Var(&opts.plant, "plant", domain.DefaultPlantCoefficient, "plant coefficient")
	flag.StringVar(&opts.format, "format", "table", "output format: table or json")
	flag.StringVar(&opts.at, "at", "", "RFC3339 timestamp to stamp updates with")
	flag.Parse()

	if opts.payload == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, w io.Writer) error {
	if opts.at != "" {
		at, err := time.Parse(time.RFC3339, opts.at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(at))
		defer domain.SetClock(nil)
	}

	payload, err := os.ReadFile(opts.payload)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	mode := domain.ModeCurrent
	switch opts.mode {
	case "current":
	case "forecast":
		mode = domain.ModeForecast
	default:
		return fmt.Errorf("invalid -mode %q: must be current or forecast", opts.mode)
	}

	days := min(max(opts.days, 0), config.MaxForecastDays)
	settings := pipeline.Settings{
		Units: domain.ParseUnitSystem(opts.units),
		Site: domain.SiteParameters{
			Latitude:         opts.latitude,
			Elevation:        opts.elevation,
			PlantCoefficient: opts.plant,
		},
		ForecastDays: days,
	}
	if err := settings.Site.Validate(); err != nil {
		return fmt.Errorf("invalid site: %w", err)
	}

	frames, err := domain.Normalize(payload, mode)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	// Unregistered collectors: nothing is scraped from a one-shot run.
	transformer := pipeline.NewTransformer(logger, observability.NewMetricsForTesting())
	state := pipeline.NewDriverStore()

	var updates []domain.DriverUpdate
	if mode == domain.ModeCurrent {
		updates = transformer.Current(frames[0], settings, state, true)
	} else {
		series := domain.ForecastSeries(frames)
		for day, frame := range series.Bound(days) {
			if frame.Err != nil {
				logger.Warn("forecast interval skipped", "node", domain.ForecastNode(day), "error", frame.Err)
			}
		}
		updates = transformer.Forecast(series, settings, state, true)
	}

	return write(w, opts.format, updates)
}

func write(w io.Writer, format string, updates []domain.DriverUpdate) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		for _, u := range updates {
			if err := enc.Encode(u); err != nil {
				return fmt.Errorf("encode update: %w", err)
			}
		}
		return nil
	case "table":
		for _, u := range updates {
			if _, err := fmt.Fprintf(w, "%-12s %-8s %12.*f  uom=%d\n", u.Node, u.Driver, u.Precision, u.Value, u.UOM); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("invalid -format %q: must be table or json", format)
	}
}
