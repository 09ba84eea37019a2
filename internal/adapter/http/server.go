package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ObservationReader returns stored observations for an inclusive date range.
type ObservationReader interface {
	QueryRange(ctx context.Context, from, to string) ([]domain.CanonicalRecord, error)
}

// Server exposes the observation read API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	reader     ObservationReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /observations, /healthz, /readyz, and
// /metrics routes. Metrics are served from gatherer.
func NewServer(addr string, reader ObservationReader, ready sharedobs.ReadinessChecker, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reader: reader,
		logger: logger,
	}

	mux.HandleFunc("GET /observations", s.handleObservations)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
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

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := s.reader.QueryRange(r.Context(), from, to)
	if err != nil {
		s.logger.Error("query observations failed", "error", err, "from", from, "to", to)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// parseRange accepts either ?date=D or ?from=D1&to=D2, dates as YYYY-MM-DD.
func parseRange(r *http.Request) (from, to string, err error) {
	q := r.URL.Query()
	date, from, to := q.Get("date"), q.Get("from"), q.Get("to")

	switch {
	case date != "" && (from != "" || to != ""):
		return "", "", errors.New("use either date or from/to, not both")
	case date != "":
		if !validDate(date) {
			return "", "", errors.New("date must be YYYY-MM-DD")
		}
		return date, date, nil
	case from != "" && to != "":
		if !validDate(from) || !validDate(to) {
			return "", "", errors.New("from and to must be YYYY-MM-DD")
		}
		if from > to {
			return "", "", errors.New("from must not be after to")
		}
		return from, to, nil
	default:
		return "", "", errors.New("date or from and to are required")
	}
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
