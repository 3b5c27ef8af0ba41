package handler

import (
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/simmerhq/simmer/scheduler"
)

var startTime = time.Now()

// AdminStats reports process statistics and the state of all scheduled jobs.
func (h *Handler) AdminStats(c *gin.Context) {
	stats := gin.H{
		"uptime": time.Since(startTime).Round(time.Second).String(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			stats["memory"] = humanize.Bytes(memInfo.RSS)
		}
		if cpuPercent, err := proc.CPUPercent(); err == nil {
			stats["cpuPercent"] = cpuPercent
		}
	}

	jobs := lo.Values(h.scheduler.GetJobs())
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	stats["jobs"] = lo.Map(jobs, func(job *scheduler.JobInfo, _ int) gin.H {
		return gin.H{
			"id":         job.ID,
			"name":       job.Name,
			"status":     job.Status,
			"schedule":   job.Schedule,
			"lastRun":    job.LastRun,
			"nextRun":    job.NextRun,
			"runCount":   job.RunCount,
			"errorCount": job.ErrorCount,
			"lastError":  job.LastError,
		}
	})

	c.JSON(http.StatusOK, stats)
}

// RunDigest manually triggers the digest job.
func (h *Handler) RunDigest(c *gin.Context) {
	if err := h.scheduler.RunJobNow(h.cfg.Digest.JobName); err != nil {
		log.Error("failed to trigger digest job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger digest job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "triggered"})
}
