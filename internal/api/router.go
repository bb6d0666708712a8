package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes mounted. metricsHandler
// may be nil to disable the /metrics endpoint.
func NewRouter(h *Handler, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	{
		api.GET("/stocks", h.ListStocks)
		api.POST("/stocks", h.AddStock)
		api.DELETE("/stocks/:symbol", h.RemoveStock)

		api.GET("/booms", h.ListBooms)
		api.GET("/booms/active", h.ListActiveBooms)
		api.GET("/booms/:id", h.GetBoom)

		api.GET("/history/:symbol", h.GetHistory)

		api.GET("/news", h.ListNews)
		api.GET("/news/:ticker", h.NewsByTicker)

		api.GET("/settings", h.GetSettings)
		api.PATCH("/settings", h.UpdateSettings)

		api.GET("/status", h.GetStatus)
	}

	return r
}
