package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/owningthelook/backend/config"
)

// SearchPath is the public search proxy endpoint
const SearchPath = "/api/v1/search"

// SetupRouter creates and configures the Gin router. metricsHandler may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, metricsHandler http.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins, SearchPath))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", handler.Search)
		v1.OPTIONS("/search", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		v1.POST("/analyze", handler.Analyze)
		v1.POST("/crop", handler.Crop)
		v1.POST("/matches", handler.Matches)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.CreateSession)
			sessions.GET("/:id", handler.GetSession)
			sessions.DELETE("/:id", handler.DeleteSession)
			sessions.POST("/:id/image", handler.SelectImage)
			sessions.POST("/:id/gestures", handler.Gesture)
			sessions.POST("/:id/confirm", handler.Confirm)
			sessions.POST("/:id/items/:itemId", handler.SelectItem)
			sessions.POST("/:id/broaden", handler.Broaden)
			sessions.POST("/:id/refine", handler.Refine)
			sessions.POST("/:id/reset", handler.Reset)
		}
	}

	return router
}
