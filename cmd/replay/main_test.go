package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "internal", "domain", "testdata", name)
}

func decodeLines(t *testing.T, out *bytes.Buffer) []domain.DriverUpdate {
	t.Helper()
	var updates []domain.DriverUpdate
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var u domain.DriverUpdate
		require.NoError(t, json.Unmarshal(sc.Bytes(), &u))
		updates = append(updates, u)
	}
	require.NoError(t, sc.Err())
	return updates
}

func TestRun_ForecastJSON(t *testing.T) {
	var out bytes.Buffer
	err := run(options{
		payload:  fixture("v4_forecast_10d.json"),
		mode:     "forecast",
		days:     3,
		units:    "metric",
		latitude: 45,
		plant:    domain.DefaultPlantCoefficient,
		format:   "json",
		at:       "2021-06-21T12:00:00Z",
	}, &out)
	require.NoError(t, err)

	updates := decodeLines(t, &out)
	require.NotEmpty(t, updates)

	nodes := map[string]bool{}
	for _, u := range updates {
		nodes[u.Node] = true
		assert.Equal(t, time.Date(2021, 6, 21, 12, 0, 0, 0, time.UTC), u.EmittedAt)
	}
	assert.Equal(t, map[string]bool{"forecast_0": true, "forecast_1": true, "forecast_2": true}, nodes)
}

func TestRun_CurrentTable(t *testing.T) {
	var out bytes.Buffer
	err := run(options{
		payload: fixture("v4_current.json"),
		mode:    "current",
		units:   "us",
		plant:   domain.DefaultPlantCoefficient,
		format:  "table",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "weather")
	assert.Contains(t, out.String(), "CLITEMP")
}

func TestRun_Errors(t *testing.T) {
	base := options{
		payload: fixture("v4_current.json"),
		mode:    "current",
		plant:   domain.DefaultPlantCoefficient,
		format:  "table",
	}

	tests := []struct {
		name   string
		mutate func(*options)
	}{
		{"missing file", func(o *options) { o.payload = fixture("does_not_exist.json") }},
		{"bad mode", func(o *options) { o.mode = "hourly" }},
		{"bad format", func(o *options) { o.format = "xml" }},
		{"bad timestamp", func(o *options) { o.at = "yesterday" }},
		{"bad site", func(o *options) { o.plant = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.mutate(&opts)
			assert.Error(t, run(opts, &bytes.Buffer{}))
		})
	}
}
