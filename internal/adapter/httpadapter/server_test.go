package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPipeline struct {
	err     error
	drivers []domain.DriverUpdate
}

func (m *mockPipeline) CheckReadiness(_ context.Context) error { return m.err }
func (m *mockPipeline) Snapshot() []domain.DriverUpdate        { return m.drivers }

func newTestServer(p *mockPipeline) *httpadapter.Server {
	return httpadapter.NewServer(":0", p, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockPipeline{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"ready", nil, http.StatusOK, "ready"},
		{"not ready", fmt.Errorf("pipeline has not completed a poll yet"), http.StatusServiceUnavailable, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockPipeline{err: tt.err})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockPipeline{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestDriversEndpoint(t *testing.T) {
	at := time.Date(2021, 6, 21, 12, 0, 0, 0, time.UTC)
	p := &mockPipeline{drivers: []domain.DriverUpdate{
		{Node: "forecast_0", Driver: "GV0", Value: 82.4, UOM: 17, Precision: 1, EmittedAt: at},
		{Node: "weather", Driver: "CLITEMP", Value: 72.5, UOM: 17, Precision: 1, EmittedAt: at},
		{Node: "weather", Driver: "CLIHUM", Value: 61, UOM: 22, EmittedAt: at},
	}}

	tests := []struct {
		name    string
		target  string
		wantLen int
	}{
		{"all nodes", "/v1/drivers", 3},
		{"filtered by node", "/v1/drivers?node=weather", 2},
		{"unknown node", "/v1/drivers?node=forecast_9", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(p)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)

			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Drivers []domain.DriverUpdate `json:"drivers"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Drivers)
			assert.Len(t, body.Drivers, tt.wantLen)
		})
	}
}

func TestDriversEndpointRejectsPost(t *testing.T) {
	srv := newTestServer(&mockPipeline{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/drivers", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
