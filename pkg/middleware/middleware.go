// Package middleware 提供运维 HTTP 服务使用的 gin 中间件.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	tcontext "github.com/yeisme/trashbin/pkg/context"
)

// RequestIDHeader 请求 ID 头.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware 透传或生成请求 ID，并把带 request_id 的 logger 放入请求上下文.
// 放在 TracingMiddleware 之后时 logger 还会带上 trace_id.
func RequestIDMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(RequestIDHeader, id)

		l := tcontext.WithTraceContext(c.Request.Context(), logger.With().Str("request_id", id).Logger())
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()
	}
}
