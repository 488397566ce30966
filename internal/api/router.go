package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the control plane under /api/v1 and, when gatherer
// is non-nil, the Prometheus scrape endpoint at /metrics.
func RegisterRoutes(router *gin.Engine, h *Handler, gatherer prometheus.Gatherer) {
	v1 := router.Group("/api/v1")

	linksGroup := v1.Group("/links")
	linksGroup.POST("", h.AddLinks)
	linksGroup.GET("", h.ListLinks)
	linksGroup.POST("/import", h.ImportLinks)

	v1.POST("/process", h.Process)
	v1.GET("/status", h.Status)
	v1.GET("/categories", h.Categories)
	v1.GET("/export", h.Export)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
