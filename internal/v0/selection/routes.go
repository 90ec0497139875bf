package selection

import (
	"MessAPI/internal/auth"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(v0 *gin.RouterGroup, admin *gin.RouterGroup, h *Handler, authMiddleware *auth.Middleware) {
	authed := v0.Group("")
	authed.Use(authMiddleware.RequireAuth())
	{
		authed.GET("/quotas", h.GetQuotas)

		me := authed.Group("/selections/me")
		me.GET("", h.GetMine)
		me.DELETE("", h.ClearMine)
		me.POST("/items", h.AddItem)
		me.DELETE("/items/:mealId", h.RemoveItem)
		me.GET("/limits", h.CheckLimit)
		me.GET("/stream", h.Stream)
	}

	students := admin.Group("/students")
	students.Use(authMiddleware.RequireSession(), authMiddleware.RequireRole(auth.RoleAdmin))
	{
		students.GET("/:id/selections", h.GetStudentSelections)
		students.GET("/:id/activity", h.GetStudentActivity)
	}
}
