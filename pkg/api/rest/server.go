package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/api/rest/middleware"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/logging"
	"github.com/odea-project/qalgo-go/pkg/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the REST server configuration.
type Config struct {
	Host        string
	Port        int
	CORSEnabled bool
	CORSOrigins []string
	Auth        middleware.AuthConfig
	RateLimit   middleware.RateLimitConfig
}

// Server is the status/control HTTP API for a pipeline run as a
// long-lived service: submit jobs, poll status, cancel, inspect
// config, and scrape Prometheus metrics.
type Server struct {
	config     Config
	handler    *Handler
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer wires a status/control server over an in-process job
// registry -- there is no separate backend process to dial, unlike
// the teacher's gRPC-backed REST gateway.
func NewServer(restCfg Config, pipelineCfg *config.Config, reg *registry.Registry, metrics *telemetry.Metrics) (*Server, error) {
	handler := NewHandler(reg, pipelineCfg, metrics)

	server := &Server{
		config:  restCfg,
		handler: handler,
		mux:     http.NewServeMux(),
	}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", restCfg.Host, restCfg.Port),
		Handler:      server.withMiddleware(server.mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/v1/health", s.handler.HealthCheck)
	s.mux.HandleFunc("/v1/config", s.handler.GetConfig)

	s.mux.HandleFunc("/v1/jobs", s.routeJobs)
	s.mux.HandleFunc("/v1/jobs/", s.routeJobsWithPath)

	s.mux.Handle("/metrics", promhttp.Handler())

	s.mux.HandleFunc("/docs", ServeSwaggerUI)
	s.mux.HandleFunc("/docs/openapi.yaml", ServeDocs)
}

// routeJobs handles /v1/jobs.
func (s *Server) routeJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handler.SubmitJob(w, r)
	case http.MethodGet:
		s.handler.ListJobs(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// routeJobsWithPath handles /v1/jobs/{id} and /v1/jobs/{id}/cancel.
func (s *Server) routeJobsWithPath(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/cancel") {
		s.handler.CancelJob(w, r)
		return
	}
	s.handler.GetJob(w, r)
}

// withMiddleware wraps the mux with logging, CORS, rate limiting and
// JWT auth, in the teacher's order. Each wrapper added later runs
// first, so auth is outermost (its claims are in the context before the
// rate limiter keys on them) and logging innermost.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = loggingMiddleware(handler)

	if s.config.CORSEnabled {
		handler = corsMiddleware(s.config.CORSOrigins)(handler)
	}

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit)
	handler = middleware.RateLimitMiddleware(rateLimiter)(handler)

	handler = middleware.AuthMiddleware(s.config.Auth)(handler)

	return handler
}

// Start starts the REST API server.
func (s *Server) Start() error {
	logging.Info("starting status/control server", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	logging.Info("shutting down status/control server", nil)
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs all HTTP requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logging.Debug("handled request", map[string]interface{}{
			"method": r.Method, "path": r.URL.Path, "status": wrapped.statusCode,
			"duration": time.Since(start).String(),
		})
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware adds CORS headers.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				allowed = true
				origin = "*"
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
