package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const timeout = 2 * time.Second

// Health 返回指定组件的健康检查处理器. 组件未配置时返回 503.
//
//	@Summary	依赖健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Param		component	path		string	true	"组件"	Enums(db, kv, mq, s3)
//	@Success	200			{object}	map[string]string
//	@Failure	503			{object}	map[string]string
//	@Router		/healthz/{component} [get]
func (h *Handler) Health(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		check, ok := h.checks[component]
		if !ok || check == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": component + " not initialized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		if err := check(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
	}
}

// Live 进程存活检查.
//
//	@Summary	存活检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/healthz [get]
func Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
