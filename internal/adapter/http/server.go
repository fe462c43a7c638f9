package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/simulation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Simulation is the simulator surface the API drives.
type Simulation interface {
	ReadinessChecker
	Start(ctx context.Context, params domain.ImpactorParameters, location domain.ImpactLocation, asteroidName string) (simulation.Run, error)
	Reset()
	State() simulation.State
	Report() (domain.Report, bool)
	Subscribe() (<-chan simulation.Update, func())
}

// Server exposes the simulation API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	sim        Simulation
	asteroids  domain.AsteroidDataProvider
	geocoder   domain.Geocoder // nil when geocoding is disabled
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the /api routes.
// A nil geocoder leaves unnamed locations unnamed and disables place search.
func NewServer(addr string, sim Simulation, asteroids domain.AsteroidDataProvider, geocoder domain.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      otelhttp.NewHandler(mux, "http.server"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sim:       sim,
		asteroids: asteroids,
		geocoder:  geocoder,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(sim))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/metrics", s.handleMetrics)
	mux.HandleFunc("POST /api/mass", s.handleMass)
	mux.HandleFunc("GET /api/asteroids/{id}", s.handleAsteroid)
	mux.HandleFunc("GET /api/locations", s.handleLocationSearch)

	mux.HandleFunc("GET /api/simulation", s.handleState)
	mux.HandleFunc("POST /api/simulation/start", s.handleStart)
	mux.HandleFunc("POST /api/simulation/reset", s.handleReset)
	mux.HandleFunc("GET /api/simulation/report", s.handleReport)
	mux.HandleFunc("GET /api/simulation/report/export", s.handleExport)
	mux.HandleFunc("GET /api/simulation/ws", s.handleWS)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// WebSocket streams end when the simulator closes its subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
