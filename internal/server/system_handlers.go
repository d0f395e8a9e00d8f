package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves host and process statistics
type SystemHandlers struct {
	log       zerolog.Logger
	startedAt time.Time
	cpuPct    func() ([]float64, error)
	memory    func() (*mem.VirtualMemoryStat, error)
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		startedAt: time.Now(),
		// 100ms keeps the endpoint responsive while still sampling CPU usage
		cpuPct: func() ([]float64, error) { return cpu.Percent(100*time.Millisecond, false) },
		memory: mem.VirtualMemory,
	}
}

// SystemStatsResponse is the body of GET /api/system/stats
type SystemStatsResponse struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// HandleSystemStats returns CPU, memory and runtime statistics
func (h *SystemHandlers) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	var resp SystemStatsResponse

	cpuPercent, err := h.cpuPct()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		resp.CPUPercent = cpuPercent[0]
	}

	memStat, err := h.memory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		resp.MemoryPercent = memStat.UsedPercent
		resp.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	resp.HeapAllocMB = float64(ms.HeapAlloc) / 1024 / 1024
	resp.Goroutines = runtime.NumGoroutine()
	resp.UptimeSeconds = time.Since(h.startedAt).Seconds()

	h.writeJSON(w, resp)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
