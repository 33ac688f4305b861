// Package router 把运维接口的路径绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/trashbin/pkg/internal/handle"
)

// Options 路由注册参数.
type Options struct {
	// Trigger 挂在手动触发清理的路由上（通常是限流中间件），可为 nil.
	Trigger gin.HandlerFunc
	// Swagger 为 true 时挂载 /swagger 文档，通常只在 debug 模式开启.
	Swagger     bool
	SwaggerHost string
}

// Register 注册全部运维路由:
//
//	GET    /healthz
//	GET    /healthz/{db,kv,mq,s3}
//	GET    /api/v1/trash/expiry
//	DELETE /api/v1/trash/expiry/offset
//	POST   /api/v1/trash/expiry/:user
//	POST   /api/v1/trash/expiry/:user/schedule
//	GET    /api/v1/scheduler/jobs
//	POST   /api/v1/scheduler/jobs/:name/run
//	GET    /swagger/*any
func Register(engine *gin.Engine, h *handle.Handler, opts Options) {
	RegisterHealthCheckRoute(engine.Group("/"), h)

	if opts.Swagger {
		RegisterSwaggerRoute(engine, opts.SwaggerHost)
	}

	v1 := engine.Group("/api/v1")
	RegisterTrashRoutes(v1, h, opts.Trigger)
	RegisterSchedulerRoutes(v1, h, opts.Trigger)
}

// RegisterTrashRoutes 注册回收站清理路由.
func RegisterTrashRoutes(g *gin.RouterGroup, h *handle.Handler, trigger gin.HandlerFunc) {
	trash := g.Group("/trash/expiry")
	{
		trash.GET("", h.Status)
		trash.DELETE("/offset", h.ResetBatchOffset)
		trash.POST("/:user", withTrigger(trigger, h.ExpireUser)...)
		trash.POST("/:user/schedule", withTrigger(trigger, h.ScheduleExpiry)...)
	}
}

func withTrigger(trigger, h gin.HandlerFunc) []gin.HandlerFunc {
	if trigger == nil {
		return []gin.HandlerFunc{h}
	}

	return []gin.HandlerFunc{trigger, h}
}
