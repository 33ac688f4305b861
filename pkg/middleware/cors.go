package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/trashbin/pkg/configs"
)

// CORSMiddleware CORS中间件. 非调试模式只允许 GET，触发类接口需要同源或服务端调用.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AddAllowHeaders(RequestIDHeader)
	config.AddExposeHeaders(RequestIDHeader)

	if !cfg.Debug {
		config.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	}

	return cors.New(config)
}
