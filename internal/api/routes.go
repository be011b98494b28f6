package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(handler *Handler) *gin.Engine {
	r := gin.Default()

	// Health check and metrics
	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := r.Group("/api/v1")
	{
		v1.POST("/bundle/load", handler.LoadBundle)
		v1.GET("/bundle/digest", handler.Digest)
		v1.GET("/bundle/context", handler.BundleContext)
		v1.POST("/analyze", handler.Analyze)
		v1.POST("/chat", handler.Chat)
		v1.GET("/analysis", handler.Analysis)
		v1.GET("/logs", handler.Logs)
		v1.DELETE("/cache", handler.ClearCache)
		v1.GET("/events", handler.Events)
	}

	return r
}
