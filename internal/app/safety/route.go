package safety

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	rg.POST("/blocks", handler.Block)
	rg.DELETE("/blocks", handler.Unblock)
	rg.POST("/reports", handler.Report)
}
