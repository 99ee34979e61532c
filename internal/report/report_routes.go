package report

import (
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	reports := r.Group("/leaves/reports")
	reports.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(middleware.RoleAdmin))
	{
		reports.GET("", handler.Summary)
		reports.GET("/stats", handler.Stats)
	}
}
