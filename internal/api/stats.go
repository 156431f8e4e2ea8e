package api

import (
	"net/http"
	"runtime"
	"time"

	"rutago/pkg/tracker"
)

// StatsHandler serves engine counters and process diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
	started time.Time
}

// NewStatsHandler creates the stats handler. started is the process start
// time, used for the uptime figure.
func NewStatsHandler(t *tracker.Tracker, started time.Time) *StatsHandler {
	return &StatsHandler{tracker: t, started: started}
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	UptimeSec  int64         `json:"uptime_sec"`
	Engine     tracker.Stats `json:"engine"`
	Goroutines int           `json:"goroutines"`
	MemoryMB   uint64        `json:"memory_mb"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		UptimeSec:  int64(time.Since(h.started).Seconds()),
		Engine:     h.tracker.Snapshot(),
		Goroutines: runtime.NumGoroutine(),
		MemoryMB:   mem.Alloc / 1024 / 1024,
	}
	writeJSON(w, http.StatusOK, resp)
}
