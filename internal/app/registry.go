package app

import (
	"database/sql"

	"leavedesk/internal/balance"
	"leavedesk/internal/leave"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/report"
	"leavedesk/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	typeRepo leavetype.Repository,
	typeService leavetype.Service,
) {
	// --- Repositories ---
	balanceRepo := balance.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	reportRepo := report.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)

	// --- Services ---
	balanceService := balance.NewService(db, balanceRepo, typeRepo)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, balanceRepo, typeRepo, outboxRepo)
	reportService := report.NewService(reportRepo, rdb)
	userService := user.NewService(db, userRepo, balanceService)

	// --- Handlers ---
	typeHandler := leavetype.NewHandler(typeService)
	balanceHandler := balance.NewHandler(balanceService)
	leaveHandler := leave.NewHandler(leaveService)
	reportHandler := report.NewHandler(reportService)
	userHandler := user.NewHandler(userService)

	// --- Routes ---
	api := router.Group("/api/v1")
	{
		user.RegisterRoutes(api, userHandler)
		leavetype.RegisterRoutes(api, typeHandler)
		balance.RegisterRoutes(api, balanceHandler)
		leave.RegisterRoutes(api, leaveHandler, rdb)
		report.RegisterRoutes(api, reportHandler)
	}
}
