package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers sign-in, self-service and account admin routes
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, adminHandler *AdminHandler, middleware *Middleware) {
	auth := router.Group("/auth")
	{
		auth.GET("/login/:provider", handler.Login)
		auth.GET("/callback/:provider", handler.Callback)

		authed := auth.Group("")
		authed.Use(middleware.RequireAuth())
		{
			authed.GET("/me", handler.Me)
			authed.PATCH("/me/preference", handler.UpdatePreference)
		}

		// Token management needs the web session; a token cannot mint tokens
		sessionProtected := auth.Group("")
		sessionProtected.Use(middleware.RequireSession())
		{
			sessionProtected.POST("/logout", handler.Logout)
			sessionProtected.GET("/tokens", handler.ListTokens)
			sessionProtected.POST("/tokens", handler.CreateToken)
			sessionProtected.DELETE("/tokens/:id", handler.RevokeToken)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.RequireSession(), middleware.RequireRole(RoleAdmin))
	{
		admin.GET("/campus-domains", adminHandler.ListCampusDomains)
		admin.POST("/campus-domains", adminHandler.AddCampusDomain)
		admin.DELETE("/campus-domains/:domain", adminHandler.RemoveCampusDomain)

		admin.GET("/users", adminHandler.ListUsers)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.GET("/users/:id/tokens", adminHandler.ListUserTokens)
		admin.POST("/users/:id/tokens", adminHandler.CreateUserToken)
		admin.DELETE("/tokens/:id", adminHandler.RevokeToken)
	}
}
