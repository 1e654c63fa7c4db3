package message

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	messages := rg.Group("/messages")
	{
		messages.POST("", handler.Send)
		messages.POST("/mark-read", handler.MarkRead)
		messages.GET("/:id/reactions", handler.ListReactions)
		messages.POST("/:id/reactions", handler.ToggleReaction)
	}

	rg.GET("/conversations/:id/messages", handler.History)
}
