package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/config"
	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
	disconnectWait = 250 // milliseconds
)

// ErrPublishTimeout is returned when the broker does not acknowledge a publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// publisher is the subset of paho.Client used by Sink.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Sink publishes each driver update to {prefix}/{node}/{driver}.
// It implements pipeline.BatchLoader.
type Sink struct {
	client  publisher
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSink connects to the configured broker.
func NewSink(cfg *config.Config, logger *slog.Logger) (*Sink, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", cfg.MQTTBroker, "error", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", cfg.MQTTBroker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.MQTTBroker, err)
	}
	logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "client_id", cfg.MQTTClientID)

	return newSink(client, cfg.MQTTTopicPrefix, logger), nil
}

func newSink(client publisher, prefix string, logger *slog.Logger) *Sink {
	return &Sink{client: client, prefix: prefix, timeout: publishTimeout, logger: logger}
}

// LoadBatch publishes every update. Publishing continues past individual
// failures; the joined error reports all of them.
func (s *Sink) LoadBatch(ctx context.Context, updates []domain.DriverUpdate) error {
	var errs []error
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.publish(u); err != nil {
			s.logger.Warn("mqtt publish failed", "node", u.Node, "driver", u.Driver, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) publish(u domain.DriverUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("serialize driver update: %w", err)
	}
	topic := Topic(s.prefix, u)
	token := s.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: %w", topic, err)
	}
	return nil
}

// Topic returns the topic an update is published on.
func Topic(prefix string, u domain.DriverUpdate) string {
	if prefix == "" {
		return u.Node + "/" + u.Driver
	}
	return prefix + "/" + u.Node + "/" + u.Driver
}

func (s *Sink) Close() error {
	s.client.Disconnect(disconnectWait)
	return nil
}
