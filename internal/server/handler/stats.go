package handler

import (
	"net/http"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/engine"
)

// StatsHandler serves scan statistics for monitoring.
type StatsHandler struct {
	mode      string
	startedAt time.Time
	last      func() *engine.ScanResult
}

// NewStatsHandler creates a StatsHandler. last returns the most recent scan,
// nil before the first one completes.
func NewStatsHandler(mode string, startedAt time.Time, last func() *engine.ScanResult) *StatsHandler {
	return &StatsHandler{mode: mode, startedAt: startedAt, last: last}
}

// GetStats responds with uptime and the latest scan's summary.
// GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"mode":           h.mode,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}

	if h.last != nil {
		if res := h.last(); res != nil {
			out["last_scan"] = map[string]any{
				"scan_id":       res.ScanID,
				"started_at":    res.StartedAt.UTC().Format(time.RFC3339),
				"duration_ms":   res.Duration.Milliseconds(),
				"graph_stats":   res.GraphStats,
				"cycles_found":  res.CyclesFound,
				"opportunities": len(res.Opportunities),
			}
		}
	}

	writeJSON(w, http.StatusOK, out)
}
