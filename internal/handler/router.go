package handler

import (
	"net/http"

	"github.com/GoPolymarket/logkeep/internal/config"
	"github.com/GoPolymarket/logkeep/internal/middleware"
	"github.com/GoPolymarket/logkeep/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires middleware and the /v1 log routes around store. idem may
// be nil, which disables X-Idempotency-Key handling.
func NewRouter(cfg *config.Config, store *service.LogStore, idem middleware.IdempotencyStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Global Middleware
	r.Use(middleware.ErrorHandler(store))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "logkeep", "entries": store.Count()})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	logs := NewLogHandler(store)
	limiter := middleware.NewIngestLimiter(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst)

	v1 := r.Group("/v1")
	{
		v1.GET("/levels", logs.Levels)
		v1.GET("/logs", logs.List)
		v1.GET("/logs/stream", logs.Stream)
		v1.GET("/logs/:id", logs.Get)
		v1.GET("/logs/:id/export", logs.Export)
		v1.POST("/logs", middleware.RateLimitMiddleware(limiter), middleware.IdempotencyMiddleware(idem), logs.Append)
		v1.DELETE("/logs", middleware.AdminMiddleware(cfg), logs.Clear)
	}
	return r
}
