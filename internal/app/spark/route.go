package spark

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	sparks := rg.Group("/sparks")
	{
		sparks.POST("", handler.Send)
		sparks.DELETE("", handler.Delete)
		sparks.GET("", handler.List)
		sparks.GET("/quota", handler.Quota)
	}
}
