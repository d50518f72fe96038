package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/config"
	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces driver updates to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured driver topic. Updates
// are keyed by node and driver so each driver's history stays on one partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes driver updates in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, updates []domain.DriverUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(updates))
	for i := range updates {
		msg, err := serializeToMessage(updates[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d driver updates: %w", len(msgs), err)
	}
	w.logger.Debug("driver updates written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey returns the partition key for a driver update.
func MessageKey(u domain.DriverUpdate) string {
	return u.Node + "/" + u.Driver
}

// serializeToMessage marshals a DriverUpdate into a Kafka message.
func serializeToMessage(u domain.DriverUpdate) (kafkago.Message, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize driver update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(u)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "node", Value: []byte(u.Node)},
			{Key: "driver", Value: []byte(u.Driver)},
			{Key: "emitted_at", Value: []byte(u.EmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
