package leavetype

import (
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	types := r.Group("/leaves/types")
	types.Use(middleware.AuthMiddleware())
	{
		types.GET("", handler.GetAll)
	}
}
