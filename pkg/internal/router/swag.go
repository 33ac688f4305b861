package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/trashbin/docs"
)

// RegisterSwaggerRoute 注册 Swagger 文档路由，host 为空时由浏览器使用当前地址.
func RegisterSwaggerRoute(r *gin.Engine, host string) {
	docs.SwaggerInfo.Host = host

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
