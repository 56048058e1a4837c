package health

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/pkg/cron"
	redisc "github.com/encounter-space/core/internal/pkg/redis"
	"github.com/encounter-space/core/internal/pkg/response"
)

type Handler struct {
	db        *gorm.DB
	rc        *redisc.Client
	scheduler *cron.Scheduler
	startedAt time.Time
}

func NewHandler(db *gorm.DB, rc *redisc.Client, scheduler *cron.Scheduler) *Handler {
	return &Handler{
		db:        db,
		rc:        rc,
		scheduler: scheduler,
		startedAt: time.Now(),
	}
}

func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	group := api.Group("/health")
	group.GET("", h.health)
	group.GET("/cron", auth, h.cronJobs)
	group.POST("/cron/:name/run", auth, h.runCronJob)
}

func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = err.Error()
	}

	redisStatus := "ok"
	if err := h.rc.Raw().Ping(ctx).Err(); err != nil {
		redisStatus = err.Error()
	}

	status := "ok"
	if dbStatus != "ok" || redisStatus != "ok" {
		status = "degraded"
	}

	response.OK(c, gin.H{
		"status": status,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}

func (h *Handler) cronJobs(c *gin.Context) {
	response.OK(c, h.scheduler.List())
}

func (h *Handler) runCronJob(c *gin.Context) {
	name := c.Param("name")
	if err := h.scheduler.RunNow(context.WithoutCancel(c.Request.Context()), name); err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.OK(c, gin.H{"triggered": name})
}
