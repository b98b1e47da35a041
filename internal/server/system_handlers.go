package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server/response"
)

// SystemHandlers serves process and database health endpoints
type SystemHandlers struct {
	db      *database.DB
	log     zerolog.Logger
	started time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:      db,
		log:     log.With().Str("handler", "system").Logger(),
		started: time.Now(),
	}
}

// HandleLiveness is the bare liveness probe
func (h *SystemHandlers) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, h.log, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSystemHealth reports process, host, and database health. The database
// check is a quick page scan; a failure degrades the status rather than
// erroring, so monitoring can still read the rest of the report.
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	dbStatus := "ok"
	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database quick check failed")
		dbStatus = err.Error()
		status = "degraded"
	}

	cpuPct, memPct := h.systemStats()

	diskReport := map[string]interface{}{}
	if usage, err := disk.Usage("/"); err == nil {
		diskReport["totalGb"] = float64(usage.Total) / (1 << 30)
		diskReport["usedPercent"] = usage.UsedPercent
	}

	response.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"status":        status,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"database": map[string]interface{}{
			"name":   h.db.Name(),
			"status": dbStatus,
		},
		"system": map[string]interface{}{
			"cpuPercent":    cpuPct,
			"memoryPercent": memPct,
			"goroutines":    runtime.NumGoroutine(),
			"disk":          diskReport,
		},
	})
}

// systemStats samples CPU over a short window so the endpoint stays fast
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
