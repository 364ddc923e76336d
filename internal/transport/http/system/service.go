package system

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	httptransport "naturelog-go/internal/transport/http"
)

// Service exposes health and host metrics endpoints.
type Service struct {
	logger  *slog.Logger
	started time.Time
}

// NewService creates the system HTTP service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, started: time.Now()}
}

// Register mounts the system routes.
func (s *Service) Register(ctx context.Context, api *gin.RouterGroup) error {
	api.GET("/system/health", s.handleHealth)
	api.GET("/system/stats", s.handleStats)
	return nil
}

func (s *Service) handleHealth(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}, "")
}

type statsJSON struct {
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemTotal      uint64  `json:"memTotal"`
	MemUsed       uint64  `json:"memUsed"`
	MemPercent    float64 `json:"memPercent"`
}

func (s *Service) handleStats(c *gin.Context) {
	var stats statsJSON

	if info, err := host.Info(); err == nil {
		stats.Hostname = info.Hostname
		stats.Platform = info.Platform
		stats.UptimeSeconds = info.Uptime
	} else {
		s.logger.Warn("host info unavailable", "error", err)
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemTotal = vm.Total
		stats.MemUsed = vm.Used
		stats.MemPercent = vm.UsedPercent
	}

	httptransport.RespondSuccess(c, http.StatusOK, stats, "")
}
