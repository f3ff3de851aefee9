package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"nextlevel/api/internal/response"
)

// classifyStatus mirrors a simple load policy: anything pegged means
// High Load, elevated means Degraded.
func classifyStatus(cpuPct, memPct, diskPct float64, depsUp bool) string {
	if cpuPct >= 90 || memPct >= 90 || diskPct >= 95 || !depsUp {
		return "High Load"
	}
	if cpuPct >= 75 || memPct >= 80 || diskPct >= 90 {
		return "Degraded"
	}
	return "Operational"
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if h.mongo == nil || h.mongo.Ping(ctx, nil) != nil {
		dbStatus = "error"
	}

	cacheStatus := "ok"
	if h.cache == nil || h.cache.Ping(ctx).Err() != nil {
		cacheStatus = "error"
	}

	var cpuPct float64
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		cpuPct = percents[0]
	}

	var memPct float64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memPct = vm.UsedPercent
	}

	var diskPct float64
	if usage, err := disk.UsageWithContext(ctx, "/"); err == nil {
		diskPct = usage.UsedPercent
	}

	c.Header("Cache-Control", "no-store")
	response.OK(c, http.StatusOK, "Health fetched", gin.H{
		"status":      classifyStatus(cpuPct, memPct, diskPct, dbStatus == "ok" && cacheStatus == "ok"),
		"cpu":         cpuPct,
		"memory":      memPct,
		"disk":        diskPct,
		"database":    dbStatus,
		"cache":       cacheStatus,
		"environment": h.cfg.Environment,
	})
}
