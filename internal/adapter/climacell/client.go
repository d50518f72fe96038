package climacell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

const (
	endpointCurrent  = "current"
	endpointForecast = "forecast"

	maxErrorBody = 512
)

var (
	// ErrRateLimited is returned when the provider answers 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("provider server error")
	// ErrCircuitOpen is returned without a request while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// StatusError reports a non-retryable HTTP status from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("climacell API error: status %d: %s", e.Code, e.Body)
}

var currentFields = []string{
	"temperature", "temperatureApparent", "dewPoint", "humidity", "pressureSeaLevel",
	"windSpeed", "windGust", "windDirection", "precipitationIntensity",
	"precipitationProbability", "solarGHI", "cloudCover", "visibility", "weatherCode", "epaIndex",
}

var forecastFields = []string{
	"temperatureMin", "temperatureMax", "temperatureApparentMax", "humidityMin", "humidityMax",
	"humidityAvg", "pressureSeaLevelMax", "windSpeedMin", "windSpeedMax", "windSpeedAvg",
	"windGustMax", "visibilityMax", "precipitationAccumulationSum", "precipitationProbability",
	"cloudCover", "weatherCode", "moonPhase",
}

// Backoff controls retries of failed provider requests.
type Backoff struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
}

// Options configures a Client.
type Options struct {
	APIKey    string
	BaseURL   string
	Latitude  float64
	Longitude float64
	Timeout   time.Duration
	Backoff   Backoff
}

// Client implements pipeline.Fetcher against the Climacell v4 timelines API.
// Payloads are returned raw; the domain package owns their interpretation.
type Client struct {
	apiKey     string
	baseURL    string
	location   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	backoff    Backoff
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Climacell client. Units are always requested as metric.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if opts.Backoff == (Backoff{}) {
		opts.Backoff = Backoff{MaxRetries: 2, Initial: 500 * time.Millisecond, Max: 5 * time.Second}
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		location:   formatLocation(opts.Latitude, opts.Longitude),
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "climacell",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		backoff: opts.Backoff,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchCurrent requests the latest 5 minute interval.
func (c *Client) FetchCurrent(ctx context.Context) ([]byte, error) {
	params := c.params(currentFields, "5m")
	return c.get(ctx, endpointCurrent, params)
}

// FetchForecast requests days daily intervals starting today.
func (c *Client) FetchForecast(ctx context.Context, days int) ([]byte, error) {
	params := c.params(forecastFields, "1d")
	params.Set("endTime", c.clock.Now().UTC().Add(time.Duration(days)*24*time.Hour).Format(time.RFC3339))
	return c.get(ctx, endpointForecast, params)
}

func (c *Client) params(fields []string, timestep string) url.Values {
	return url.Values{
		"location":  {c.location},
		"fields":    {strings.Join(fields, ",")},
		"timesteps": {timestep},
		"units":     {"metric"},
	}
}

// get performs the request with retries for transport errors, 429 and 5xx.
// Other statuses fail immediately, as does an open circuit breaker.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + "/timelines?" + params.Encode()
	delay := c.backoff.Initial

	for attempt := 0; ; attempt++ {
		start := c.clock.Now()
		body, err := c.do(ctx, fullURL)
		c.metrics.ProviderAPIDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())

		switch {
		case err == nil:
			c.metrics.ProviderRequests.WithLabelValues(endpoint, "success").Inc()
			return body, nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			c.metrics.ProviderRequests.WithLabelValues(endpoint, "breaker_open").Inc()
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}

		c.metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		if !retryable(err) || attempt >= c.backoff.MaxRetries || ctx.Err() != nil {
			return nil, err
		}

		c.logger.Warn("provider request failed, retrying",
			"endpoint", endpoint, "attempt", attempt+1, "delay", delay, "error", err)
		if !c.sleep(ctx, delay) {
			return nil, ctx.Err()
		}
		delay = nextBackoff(delay, c.backoff.Max)
	}
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("timelines request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func retryable(err error) bool {
	var statusErr *StatusError
	return !errors.As(err, &statusErr)
}

func formatLocation(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if maxBackoff > 0 && next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
