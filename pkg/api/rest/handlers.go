package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/logging"
	"github.com/odea-project/qalgo-go/pkg/pipeline"
	"github.com/odea-project/qalgo-go/pkg/registry"
)

// Handler implements the status/control HTTP surface over an
// in-process registry and pipeline -- there is no second process to
// dial, so it runs Run directly on a goroutine per submitted job
// instead of forwarding to a gRPC backend.
type Handler struct {
	registry *registry.Registry
	cfg      *config.Config
	metrics  *telemetry.Metrics
}

// NewHandler creates a status/control handler over a shared registry.
func NewHandler(reg *registry.Registry, cfg *config.Config, metrics *telemetry.Metrics) *Handler {
	return &Handler{registry: reg, cfg: cfg, metrics: metrics}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]interface{}{"status": "healthy"}, http.StatusOK)
}

type submitRequest struct {
	InputPath string `json:"input_path"`
	OutputDir string `json:"output_dir"`
}

// SubmitJob accepts a new pipeline run and executes it asynchronously,
// mirroring the teacher's Insert handler shape (validate body, run
// the operation, report the resulting resource).
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.InputPath == "" {
		writeError(w, "input_path is required", http.StatusBadRequest)
		return
	}
	if req.OutputDir == "" {
		req.OutputDir = "#"
	}

	job := h.registry.Submit(req.InputPath, req.OutputDir)

	go func() {
		job.SetRunning()
		fileCfg := *h.cfg
		fileCfg.IO.InputPath = req.InputPath
		fileCfg.IO.OutputDir = req.OutputDir

		summary, code, err := pipeline.Run(&fileCfg, logging.Global(), h.metrics)
		if err != nil {
			job.SetFailed(err)
			return
		}
		job.SetSucceeded(registry.Result{
			SpectraProcessed: summary.SpectraProcessed,
			CentroidsEmitted: summary.CentroidsEmitted,
			BinsClosed:       summary.BinsClosed,
			DuplicatesTotal:  summary.DuplicatesTotal,
			FeaturesEmitted:  summary.FeaturesEmitted,
			ExitCode:         int(code),
		})
	}()

	writeJSON(w, job.Snapshot(), http.StatusCreated)
}

// GetJob returns one job's current status.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	id = strings.TrimSuffix(id, "/cancel")

	job, err := h.registry.Get(id)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, job.Snapshot(), http.StatusOK)
}

// ListJobs returns every tracked job.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jobs := h.registry.List()
	snapshots := make([]interface{}, len(jobs))
	for i, j := range jobs {
		snapshots[i] = j.Snapshot()
	}
	writeJSON(w, map[string]interface{}{"jobs": snapshots}, http.StatusOK)
}

// CancelJob cancels a queued job; this is an admin-only route (see
// AuthConfig.AdminPaths in the server wiring).
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	id = strings.TrimSuffix(id, "/cancel")

	if err := h.registry.Cancel(id); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, map[string]interface{}{"cancelled": id}, http.StatusOK)
}

// GetConfig is the admin-only config introspection endpoint.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.cfg, http.StatusOK)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}

// ServeDocs serves the OpenAPI/Swagger documentation.
func ServeDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	content, err := os.ReadFile("docs/api/openapi.yaml")
	if err != nil {
		writeError(w, "OpenAPI spec not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ServeSwaggerUI serves the Swagger UI HTML page.
func ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	html := `<!DOCTYPE html>
<html>
<head>
    <title>qAlgo Pipeline API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/docs/openapi.yaml",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIBundle.SwaggerUIStandalonePreset
                ],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
