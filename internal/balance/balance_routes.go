package balance

import (
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	balances := r.Group("/leaves/balance")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("", handler.GetOwn)
		balances.GET("/:userId", middleware.RoleMiddleware(middleware.RoleAdmin), handler.GetForUser)
	}
}
