// internal/app/router.go
package app

import (
	"solarcrm-service/internal/config"
	auditHandler "solarcrm-service/internal/handlers/audit"
	recordHandler "solarcrm-service/internal/handlers/record"
	teamHandler "solarcrm-service/internal/handlers/team"
	"solarcrm-service/internal/middleware"
	"solarcrm-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	RecordHandler *recordHandler.RecordHandler
	AuditHandler  *auditHandler.AuditHandler
	TeamHandler   *teamHandler.TeamHandler
	Hub           *websocket.Hub
	Redis         *redis.Client
}

func SetupRouter(r *gin.Engine, cfg config.AppConfig, logger *zap.Logger, h *Handlers) {
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware())
	if h.Redis != nil {
		r.Use(middleware.RateLimitMiddleware(h.Redis, cfg.RateLimit, cfg.RateLimitWindow, logger))
	}

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "clients": h.Hub.TotalClients()})
	})

	// ==================== Change Feed ====================
	r.GET("/ws", websocket.ServeWS(h.Hub, logger))

	// ==================== Customer Records ====================
	records := api.Group("/records")
	{
		records.GET("", h.RecordHandler.ListRecords)
		records.POST("", h.RecordHandler.CreateRecord)
		records.GET("/:id", h.RecordHandler.GetRecord)
		records.PUT("/:id", h.RecordHandler.UpdateRecord)
		records.DELETE("/:id", h.AuditHandler.DeleteRecord)

		// Workflows
		records.POST("/:id/review", h.RecordHandler.AdvanceReview)
		records.POST("/:id/acceptance", h.RecordHandler.AdvanceAcceptance)
	}

	// ==================== Trash ====================
	trash := api.Group("/trash")
	{
		trash.GET("", h.AuditHandler.ListDeleted)
		trash.GET("/restored", h.AuditHandler.ListRestored)
		trash.POST("/:snapshot_id/restore", h.AuditHandler.RestoreRecord)
	}

	// ==================== Construction Teams ====================
	teams := api.Group("/teams")
	{
		teams.GET("", h.TeamHandler.ListTeams)
		teams.POST("", h.TeamHandler.UpsertTeam)
		teams.GET("/:name", h.TeamHandler.GetTeam)
	}
}
