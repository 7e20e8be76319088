package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/marketfuse/internal/rag"
)

// StatsSource reports index statistics. *rag.Index satisfies this.
type StatsSource interface {
	Stats() rag.Stats
}

// StatusHandler serves runtime information about the collector.
type StatusHandler struct {
	Mode      string
	Pipeline  string
	StartedAt time.Time
	Index     StatsSource // nil when no index is configured
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode, pipeline string, startedAt time.Time, index StatsSource) *StatusHandler {
	return &StatusHandler{
		Mode:      mode,
		Pipeline:  pipeline,
		StartedAt: startedAt,
		Index:     index,
	}
}

// GetStatus responds with the current mode, active pipeline, uptime, and
// index statistics when an index is configured.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(h.StartedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	resp := map[string]any{
		"mode":           h.Mode,
		"pipeline":       h.Pipeline,
		"uptime_seconds": uptime,
	}
	if h.Index != nil {
		resp["index"] = h.Index.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
