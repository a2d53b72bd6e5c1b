package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betterbuy/backend/config"
)

// MetricsSource exposes the scrape endpoint and observes request latency
type MetricsSource interface {
	RequestObserver
	Handler() http.Handler
}

// SetupRouter creates and configures the Gin router. metrics may be nil,
// in which case /metrics is not served.
func SetupRouter(cfg *config.Config, handler *Handler, metrics MetricsSource) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	var observer RequestObserver
	if metrics != nil {
		observer = metrics
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggingMiddleware(observer))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/currency", handler.ResolveCurrency)
		v1.GET("/rates", handler.GetRates)
		v1.POST("/products/extract", handler.ExtractProduct)

		cart := v1.Group("/cart")
		{
			cart.GET("", handler.ListCart)
			cart.DELETE("", handler.ClearCart)
			cart.POST("/items", handler.AddCartItem)
			cart.DELETE("/items/:id", handler.DeleteCartItem)
		}

		compare := v1.Group("/compare")
		{
			compare.POST("", handler.Compare)
			compare.GET("/export.xlsx", handler.ExportComparison)
		}
	}

	return router
}
