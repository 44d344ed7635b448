package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/client", h.GetClient)
	r.GET("/ws", h.RequireClient(), h.ServeWebSocket)
	r.GET("/conversations", h.RequireClient(), h.GetConversations)
}
