package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/api/rest/middleware"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	restCfg := Config{
		Host:        "127.0.0.1",
		Port:        0,
		CORSEnabled: true,
		CORSOrigins: []string{"*"},
		Auth:        middleware.AuthConfig{Enabled: false},
		RateLimit:   middleware.RateLimitConfig{Enabled: false},
	}
	s, err := NewServer(restCfg, config.Default(), registry.New(), telemetry.New())
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return s
}

func TestServerHealthRoute(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	s.withMiddleware(s.mux).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestServerMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.withMiddleware(s.mux).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestServerJobsRouteDispatchesByMethod(t *testing.T) {
	s := newTestServer(t)

	// GET /v1/jobs on an empty registry should succeed, not 405.
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	w := httptest.NewRecorder()
	s.withMiddleware(s.mux).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET /v1/jobs status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/jobs", nil)
	w = httptest.NewRecorder()
	s.withMiddleware(s.mux).ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /v1/jobs status = %d, want 405", w.Code)
	}
}

func TestServerCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/health", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	s.withMiddleware(s.mux).ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}
