package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DriverSnapshotter reports the last emitted value of every driver.
type DriverSnapshotter interface {
	Snapshot() []domain.DriverUpdate
}

// Pipeline is what the server needs from the running pipeline.
type Pipeline interface {
	sharedobs.ReadinessChecker
	DriverSnapshotter
}

// Server exposes health, readiness, metrics, and driver snapshot endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/drivers routes.
func NewServer(addr string, p Pipeline, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(p))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/drivers", s.driversHandler(p))

	return s
}

type driversResponse struct {
	Drivers []domain.DriverUpdate `json:"drivers"`
}

// driversHandler returns every driver's last value, optionally filtered by
// the node query parameter.
func (s *Server) driversHandler(src DriverSnapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		node := r.URL.Query().Get("node")
		drivers := make([]domain.DriverUpdate, 0)
		for _, u := range src.Snapshot() {
			if node != "" && u.Node != node {
				continue
			}
			drivers = append(drivers, u)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(driversResponse{Drivers: drivers}); err != nil {
			s.logger.Error("encode driver snapshot", "error", err)
		}
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
