package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes engine counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves engine counters plus the handler's uptime.
type StatsHandler struct {
	provider StatsProvider
	since    time.Time
}

// NewStatsHandler creates a stats handler; uptime is counted from now.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, since: time.Now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.provider.GetStats()
	stats["uptimeSeconds"] = int64(time.Since(h.since).Seconds())
	writeJSON(w, http.StatusOK, stats)
}
