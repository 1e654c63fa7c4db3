package profile

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	rg.POST("/sessions", handler.GuestSignup)

	profileGroup := rg.Group("/profile")
	{
		profileGroup.GET("", handler.GetProfile)
		profileGroup.PATCH("/display-name", handler.UpdateDisplayName)
		profileGroup.PATCH("/country", handler.UpdateCountry)
		profileGroup.PATCH("/flag-visibility", handler.UpdateFlagVisibility)
	}
}
