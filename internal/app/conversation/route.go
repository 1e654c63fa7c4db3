package conversation

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	conversations := rg.Group("/conversations")
	{
		conversations.POST("/get-or-create", handler.GetOrCreate)
		conversations.GET("", handler.List)
	}
}
