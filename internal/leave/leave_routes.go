package leave

import (
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes mirrors the public API surface: user routes scoped to the
// caller, admin routes guarded by role.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		// Submissions are throttled per caller on top of the global IP limit.
		leaves.POST("/request", middleware.RateLimitByUser(5, 10), middleware.Idempotency(rdb), handler.Create)
		leaves.GET("/requests", handler.ListMine)
		leaves.GET("/requests/:id", handler.GetByID)
		leaves.PUT("/requests/:id/cancel", handler.Cancel)

		admin := leaves.Group("/admin", middleware.RoleMiddleware(middleware.RoleAdmin))
		{
			admin.GET("/requests", handler.ListAll)
			admin.PUT("/requests/:id/approve", handler.Approve)
			admin.PUT("/requests/:id/reject", handler.Reject)
		}
	}
}
