// Package chi serves the ops listener: health, metrics and index stats.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	domidx "github.com/kailas-cloud/reviewdex/internal/domain/index"
	"github.com/kailas-cloud/reviewdex/internal/metrics"
	healthuc "github.com/kailas-cloud/reviewdex/internal/usecase/health"
)

// Error codes returned in ErrorResponse.
const (
	CodeUnauthorized  = "unauthorized"
	CodeIndexNotFound = "index_not_found"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Index            string         `json:"index"`
	TotalVectorCount int            `json:"total_vector_count"`
	Dimension        int            `json:"dimension,omitempty"`
	Namespaces       map[string]int `json:"namespaces"`
}

// HealthChecker runs the aggregated health checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// StatsReader reports index population.
type StatsReader interface {
	Stats(ctx context.Context, name string, namespaces ...string) (domidx.Stats, error)
}

// Server handles the ops routes.
type Server struct {
	health    HealthChecker
	stats     StatsReader
	indexName string
	namespace string
	logger    *zap.Logger
}

// NewServer creates an ops server.
func NewServer(health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{health: health, logger: logger}
}

// WithStats enables GET /stats for one index and namespace.
func (s *Server) WithStats(stats StatsReader, indexName, namespace string) *Server {
	s.stats = stats
	s.indexName = indexName
	s.namespace = namespace
	return s
}

// Router builds the chi router with recovery, request logging, auth and metrics.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	if s.stats != nil {
		r.Get("/stats", s.Stats)
	}
	return r
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
		s.logger.Warn("health check failed", zap.String("status", string(report.Status)), zap.Any("errors", report.Errors))
	}
	writeJSON(w, status, HealthResponse{Status: report.Status, Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Stats(r.Context(), s.indexName, s.namespace)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeIndexNotFound, fmt.Sprintf("index %q not found", s.indexName))
			return
		}
		s.logger.Error("read index stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Index:            s.indexName,
		TotalVectorCount: st.TotalVectorCount,
		Dimension:        st.Dimension,
		Namespaces:       st.Namespaces,
	})
}

// Serve runs h on addr until ctx is done, then shuts down within shutdownTimeout.
func Serve(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting ops listener", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ops listener: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown ops listener: %w", err)
	}
	logger.Info("ops listener stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
