package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/trashbin/pkg/internal/handle"
)

// 健康检查组件.
const (
	ComponentDB = "db"
	ComponentKV = "kv"
	ComponentMQ = "mq"
	ComponentS3 = "s3"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup, h *handle.Handler) {
	healthRoutes := g.Group("/healthz")
	{
		healthRoutes.GET("", handle.Live)
		healthRoutes.GET("/db", h.Health(ComponentDB))
		healthRoutes.GET("/kv", h.Health(ComponentKV))
		healthRoutes.GET("/mq", h.Health(ComponentMQ))
		healthRoutes.GET("/s3", h.Health(ComponentS3))
	}
}
