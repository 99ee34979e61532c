package user

import (
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.POST("/sync", middleware.RateLimitByUser(5, 10), handler.Sync)
		users.GET("/me", handler.GetMe)

		admin := users.Group("", middleware.RoleMiddleware(middleware.RoleAdmin))
		{
			admin.GET("", handler.GetAll)
			admin.PUT("/:id/role", handler.UpdateRole)
		}
	}
}
