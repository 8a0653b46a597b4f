package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes the service counters served on /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves service counters plus the API uptime.
type StatsHandler struct {
	stats   StatsProvider
	started time.Time
}

// NewStatsHandler creates a stats handler; uptime counts from this call.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats, started: time.Now()}
}

// HandleStats handles GET /stats. Counters change on every board, so the
// response is never cached.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	body := h.stats.GetStats()
	body["uptimeSeconds"] = int64(time.Since(h.started).Seconds())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, body)
}
