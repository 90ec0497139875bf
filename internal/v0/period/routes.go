package period

import (
	"MessAPI/internal/auth"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(v0 *gin.RouterGroup, admin *gin.RouterGroup, h *Handler, authMiddleware *auth.Middleware) {
	periods := v0.Group("/periods")
	periods.Use(authMiddleware.RequireAuth())
	{
		periods.GET("/current", h.GetCurrent)
	}

	adminPeriods := admin.Group("/periods")
	adminPeriods.Use(authMiddleware.RequireSession(), authMiddleware.RequireRole(auth.RoleAdmin))
	{
		adminPeriods.GET("", h.List)
		adminPeriods.POST("", h.Create)
	}
}
