// Package logsink writes driver updates to the service log. It is the default
// sink when no broker is configured.
package logsink

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
)

// Sink implements pipeline.BatchLoader by logging each update at info level.
type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger.With("component", "driver_sink")}
}

func (s *Sink) LoadBatch(ctx context.Context, updates []domain.DriverUpdate) error {
	for _, u := range updates {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "driver update",
			slog.String("node", u.Node),
			slog.String("driver", u.Driver),
			slog.Float64("value", u.Value),
			slog.Int("uom", u.UOM),
			slog.Int("precision", u.Precision),
		)
	}
	return nil
}

func (s *Sink) Close() error { return nil }
