package api

import (
	"net/http"
	"strings"

	"github.com/okian/bingo/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	exposition http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		exposition: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
// Clients asking only for JSON get a status document; everyone else gets the
// Prometheus exposition of the custom registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if accept := r.Header.Get("Accept"); strings.Contains(accept, "application/json") &&
		!strings.Contains(accept, "text/plain") && !strings.Contains(accept, "openmetrics") {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	h.exposition.ServeHTTP(w, r)
}
