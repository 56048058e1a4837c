package app

import (
	"github.com/gin-gonic/gin"

	"github.com/encounter-space/core/internal/middleware"
	"github.com/encounter-space/core/internal/modules/account/accounts"
	"github.com/encounter-space/core/internal/modules/account/owner"
	"github.com/encounter-space/core/internal/modules/storage/export"
	"github.com/encounter-space/core/internal/modules/sync/webhook"
	"github.com/encounter-space/core/internal/modules/system/health"
	"github.com/encounter-space/core/internal/pkg/response"
)

func (a *App) registerRoutes(exportSvc *export.Service) {
	a.router.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	a.router.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	api := a.router.Group("/api/v1")
	api.Use(middleware.OptionalAuth(a.db))
	api.Use(middleware.RateLimit(a.rc.Raw(), a.logger))

	auth := middleware.Auth(a.db)

	webhook.NewHandler(webhook.NewService(a.db, a.cfg.Webhook.Secret, a.logger.Named("sync"))).Register(api, auth)
	accounts.NewHandler(accounts.NewService(a.db, a.logger.Named("accounts"))).Register(api, auth)
	owner.NewHandler(owner.NewService(a.db, a.logger.Named("owner"))).Register(api, auth)
	export.NewHandler(exportSvc).Register(api, auth)
	health.NewHandler(a.db, a.rc, a.sched).Register(api, auth)
}
