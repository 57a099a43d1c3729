package controlhttp

import (
	"context"
	"net/http"
	"strconv"

	"keel/internal/daemon"
	"keel/internal/health"
	"keel/internal/store/eventlog"

	"github.com/gin-gonic/gin"
)

// DaemonController is the slice of the daemon the control surface drives.
type DaemonController interface {
	Start(ctx context.Context) error
	Stop(reason string)
	Pause(reason string)
	Resume()
	Status(ctx context.Context) (daemon.Status, error)
	HealthCheck(ctx context.Context) (health.HealthReport, error)
	ResetBreaker(name string) error
}

// EventReader serves the logs(n) query.
type EventReader interface {
	Recent(ctx context.Context, n int) ([]eventlog.Entry, error)
}

// Router exposes the lifecycle and observability endpoints.
type Router struct {
	daemon DaemonController
	events EventReader
}

func NewRouter(d DaemonController, events EventReader) *Router {
	return &Router{daemon: d, events: events}
}

// Register mounts the control routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/status", r.handleStatus)
	group.GET("/health", r.handleHealth)
	group.GET("/logs", r.handleLogs)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/pause", r.handlePause)
	group.POST("/resume", r.handleResume)
	group.POST("/breakers/:name/reset", r.handleBreakerReset)
}

func (r *Router) handleStatus(c *gin.Context) {
	st, err := r.daemon.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": st})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (r *Router) handleHealth(c *gin.Context) {
	report, err := r.daemon.HealthCheck(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (r *Router) handleLogs(c *gin.Context) {
	if r.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event log not configured"})
		return
	}
	n := 50
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}
	entries, err := r.events.Recent(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (r *Router) handleStart(c *gin.Context) {
	if err := r.daemon.Start(context.WithoutCancel(c.Request.Context())); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "started"})
}

func (r *Router) handleStop(c *gin.Context) {
	req := reasonRequest{Reason: "stopped via control api"}
	_ = c.ShouldBindJSON(&req)
	r.daemon.Stop(req.Reason)
	c.JSON(http.StatusOK, gin.H{"result": "stopped"})
}

func (r *Router) handlePause(c *gin.Context) {
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	r.daemon.Pause(req.Reason)
	c.JSON(http.StatusOK, gin.H{"result": "paused", "reason": req.Reason})
}

func (r *Router) handleResume(c *gin.Context) {
	r.daemon.Resume()
	c.JSON(http.StatusOK, gin.H{"result": "resumed"})
}

func (r *Router) handleBreakerReset(c *gin.Context) {
	name := c.Param("name")
	if err := r.daemon.ResetBreaker(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "reset", "breaker": name})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}
