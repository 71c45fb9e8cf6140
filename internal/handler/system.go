package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/renningen-dev/bobbervox/pkg/middleware"
	"github.com/renningen-dev/bobbervox/pkg/response"
)

// HealthCheck reports database reachability plus host resource usage, so a
// stuck extraction box (full disk, pegged CPU) shows up here first.
func (h *Handlers) HealthCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}

	system := gin.H{}
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		system["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["memory_percent"] = vm.UsedPercent
	}
	if du, err := disk.Usage(h.layout.Root()); err == nil {
		system["disk_percent"] = du.UsedPercent
		system["disk_free_bytes"] = du.Free
	}
	if uptime, err := host.Uptime(); err == nil {
		system["uptime_seconds"] = uptime
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy", "system": system})
}

// UpdateRateLimiterConfig swaps the limiter configuration at runtime.
func (h *Handlers) UpdateRateLimiterConfig(c *gin.Context) {
	if h.limiter == nil {
		response.Fail(c, "rate limiting is not enabled", nil)
		return
	}
	var cfg middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	h.limiter.UpdateConfig(cfg)
	response.Success(c, "rate limiter config updated", nil)
}
