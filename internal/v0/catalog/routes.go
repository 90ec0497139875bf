package catalog

import (
	"MessAPI/internal/auth"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(v0 *gin.RouterGroup, admin *gin.RouterGroup, h *Handler, authMiddleware *auth.Middleware) {
	catalog := v0.Group("/catalog")
	catalog.Use(authMiddleware.RequireAuth())
	{
		catalog.GET("/items", h.ListItems)
		catalog.GET("/items/:id", h.GetItem)
	}

	adminCatalog := admin.Group("/catalog")
	adminCatalog.Use(authMiddleware.RequireSession(), authMiddleware.RequireRole(auth.RoleAdmin))
	{
		adminCatalog.POST("/items", h.CreateItem)
		adminCatalog.PATCH("/items/:id", h.UpdateItem)
		adminCatalog.DELETE("/items/:id", h.DeleteItem)
		adminCatalog.POST("/items/:id/image", h.UploadImage)
	}
}
