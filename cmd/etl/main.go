package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climacell-weather-etl/internal/adapter/climacell"
	"github.com/couchcryptid/climacell-weather-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climacell-weather-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climacell-weather-etl/internal/adapter/logsink"
	mqttadapter "github.com/couchcryptid/climacell-weather-etl/internal/adapter/mqtt"
	"github.com/couchcryptid/climacell-weather-etl/internal/config"
	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	"github.com/couchcryptid/climacell-weather-etl/internal/observability"
	"github.com/couchcryptid/climacell-weather-etl/internal/pipeline"
	"github.com/couchcryptid/climacell-weather-etl/internal/scheduler"
)

// sink is a pipeline.BatchLoader that holds a connection.
type sink interface {
	pipeline.BatchLoader
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if cfg.ForecastDaysClamped {
		logger.Warn("forecast days clamped", "max", config.MaxForecastDays)
	}

	client := climacell.NewClient(climacell.Options{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.ProviderBaseURL,
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
		Timeout:   cfg.ProviderTimeout,
	}, logger, metrics)

	out, err := newSink(cfg, logger)
	if err != nil {
		logger.Error("failed to create sink", "sink", cfg.Sink, "error", err)
		os.Exit(1)
	}

	p := pipeline.New(client, out, settingsFromConfig(cfg), logger, metrics)
	sched := scheduler.New(p, scheduler.Intervals{Short: cfg.ShortPoll, Long: cfg.LongPoll}, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	go reloadOnHangup(ctx, p, logger)

	logger.Info("weather etl running",
		"sink", cfg.Sink,
		"units", domain.ParseUnitSystem(cfg.Units).String(),
		"forecast_days", cfg.ForecastDays,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := out.Close(); err != nil {
		logger.Error("sink close error", "sink", cfg.Sink, "error", err)
	}

	logger.Info("shutdown complete")
}

func newSink(cfg *config.Config, logger *slog.Logger) (sink, error) {
	switch cfg.Sink {
	case config.SinkKafka:
		return kafkaadapter.NewWriter(cfg, logger), nil
	case config.SinkMQTT:
		return mqttadapter.NewSink(cfg, logger)
	case config.SinkLog:
		return logsink.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

func settingsFromConfig(cfg *config.Config) pipeline.Settings {
	return pipeline.Settings{
		Units: domain.ParseUnitSystem(cfg.Units),
		Site: domain.SiteParameters{
			Latitude:         cfg.Latitude,
			Elevation:        cfg.Elevation,
			PlantCoefficient: cfg.PlantCoefficient,
		},
		ForecastDays: cfg.ForecastDays,
	}
}

// reloadOnHangup re-reads the .env file and environment on SIGHUP and applies
// the site settings to the running pipeline. Poll intervals, sink, and
// provider settings require a restart.
func reloadOnHangup(ctx context.Context, p *pipeline.Pipeline, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Reload()
			if err != nil {
				logger.Error("config reload failed, keeping current settings", "error", err)
				continue
			}
			if cfg.ForecastDaysClamped {
				logger.Warn("forecast days clamped", "max", config.MaxForecastDays)
			}
			p.Reconfigure(settingsFromConfig(cfg))
			logger.Info("config reloaded", "units", cfg.Units, "forecast_days", cfg.ForecastDays)
		}
	}
}
