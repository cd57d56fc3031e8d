package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/service"
	"go.uber.org/zap"
)

// NewRouter wires middleware and routes around dashboard.
func NewRouter(cfg *config.Config, dashboard *service.Dashboard, logger *zap.Logger) *gin.Engine {
	dashboardHandler := NewDashboardHandler(dashboard, logger)
	healthHandler := NewHealthHandler(logger)
	readyHandler := NewReadyHandler(dashboard, logger)
	limiter := NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", healthHandler.Handle)
	router.GET("/ready", readyHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", dashboardHandler.Status)
		v1.PUT("/mode", dashboardHandler.SetMode)
		v1.GET("/result", dashboardHandler.Result)

		analyze := v1.Group("/analyze", RateLimitMiddleware(limiter, logger))
		analyze.POST("/full-email", dashboardHandler.AnalyzeFullEmail)
		analyze.POST("/url-only", dashboardHandler.AnalyzeURLOnly)
	}

	return router
}
