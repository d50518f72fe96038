package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// MaxForecastDays is the provider's daily forecast horizon.
const MaxForecastDays = 15

// Sink names accepted by SINK.
const (
	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkMQTT  = "mqtt"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	APIKey    string
	Latitude  float64
	Longitude float64
	Units     string

	ForecastDays        int
	ForecastDaysClamped bool
	Elevation           float64
	PlantCoefficient    float64

	ShortPoll       time.Duration
	LongPoll        time.Duration
	ProviderBaseURL string
	ProviderTimeout time.Duration

	Sink            string
	KafkaBrokers    []string
	KafkaTopic      string
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	MQTTUsername    string
	MQTTPassword    string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load()
}

// Reload is Load for a running service: values in the .env file replace ones
// set by a previous load.
func Reload() (*Config, error) {
	_ = godotenv.Overload()
	return load()
}

func load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIKey:          os.Getenv("CLIMACELL_API_KEY"),
		Units:           sharedcfg.EnvOrDefault("UNITS", "us"),
		ProviderBaseURL: sharedcfg.EnvOrDefault("PROVIDER_BASE_URL", "https://data.climacell.co/v4"),
		Sink:            strings.ToLower(sharedcfg.EnvOrDefault("SINK", SinkLog)),
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-driver-updates"),
		MQTTBroker:      sharedcfg.EnvOrDefault("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:    sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "climacell-weather-etl"),
		MQTTTopicPrefix: sharedcfg.EnvOrDefault("MQTT_TOPIC_PREFIX", "climacell"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.APIKey == "" {
		return nil, errors.New("CLIMACELL_API_KEY is required")
	}

	if cfg.Latitude, err = parseRequiredFloat("LATITUDE", -90, 90); err != nil {
		return nil, err
	}
	if cfg.Longitude, err = parseRequiredFloat("LONGITUDE", -180, 180); err != nil {
		return nil, err
	}
	if cfg.Elevation, err = parseFloat("ELEVATION", "0"); err != nil {
		return nil, err
	}
	if cfg.Elevation < 0 {
		return nil, errors.New("invalid ELEVATION: must be >= 0")
	}
	if cfg.PlantCoefficient, err = parseFloat("PLANT_TYPE", "0.23"); err != nil {
		return nil, err
	}
	if cfg.PlantCoefficient <= 0 || cfg.PlantCoefficient >= 1 {
		return nil, errors.New("invalid PLANT_TYPE: must be between 0 and 1")
	}

	if cfg.ForecastDays, err = parseForecastDays(); err != nil {
		return nil, err
	}
	if cfg.ForecastDays > MaxForecastDays {
		cfg.ForecastDays = MaxForecastDays
		cfg.ForecastDaysClamped = true
	}

	if cfg.ShortPoll, err = parseDuration("SHORT_POLL", "5m"); err != nil {
		return nil, err
	}
	if cfg.LongPoll, err = parseDuration("LONG_POLL", "1h"); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = parseDuration("PROVIDER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	switch cfg.Sink {
	case SinkLog:
	case SinkKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required")
		}
	case SinkMQTT:
		if cfg.MQTTBroker == "" {
			return nil, errors.New("MQTT_BROKER is required")
		}
	default:
		return nil, fmt.Errorf("invalid SINK %q: must be one of log, kafka, mqtt", cfg.Sink)
	}

	return cfg, nil
}

func parseRequiredFloat(key string, lo, hi float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s: %v outside [%v, %v]", key, v, lo, hi)
	}
	return v, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseForecastDays() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("FORECAST_DAYS", "0"))
	if err != nil || n < 0 {
		return 0, errors.New("invalid FORECAST_DAYS: must be a non-negative integer")
	}
	return n, nil
}
