package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/config"
)

// MetricsProvider exposes request metrics and the Prometheus handler
type MetricsProvider interface {
	RequestObserver
	Handler() http.Handler
}

// SetupRouter creates and configures the Gin router. metrics may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger, metrics MetricsProvider) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		receipts := v1.Group("/receipts")
		receipts.Use(TimeoutMiddleware(cfg.Server.RequestTimeout))
		{
			receipts.POST("/analyze", handler.AnalyzeReceipt)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/categorize", handler.Categorize)
		}
	}

	return router
}
