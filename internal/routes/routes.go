package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"split-reconciliation-backend/internal/config"
	handler "split-reconciliation-backend/internal/handlers"
	"split-reconciliation-backend/internal/repository"
	"split-reconciliation-backend/internal/services/splitmatch"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.MatchingConfig, log logrus.FieldLogger) {
	store := repository.NewStore(db)
	service := splitmatch.NewService(store, splitmatch.DefaultsFromConfig(cfg), log)
	h := handler.NewSplitMatchHandler(service)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tenant := api.Group("", handler.RequireTenant())

	matches := tenant.Group("/split-matches")
	{
		matches.POST("/suggest", h.Suggest)
		matches.GET("", h.List)
		matches.GET("/stats", h.Stats)
		matches.GET("/:id", h.Get)
		matches.GET("/:id/history", h.History)
		matches.POST("/:id/confirm", h.Confirm)
		matches.POST("/:id/reject", h.Reject)
	}

	settings := tenant.Group("/settings")
	settings.GET("/matching", h.GetSettings)
	settings.PUT("/matching", h.UpdateSettings)
}
