package app

import (
	"context"
	"os"
	"strings"
	"time"

	"leavedesk/internal/balance"
	"leavedesk/internal/leave"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/middleware"
	"leavedesk/internal/shared/connection"
	"leavedesk/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BuildApp connects the infrastructure, migrates the schema, seeds the
// leave type catalog, and mounts every module on the router.
func BuildApp(router *gin.Engine) error {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	if err := gormDB.AutoMigrate(
		&user.User{},
		&leavetype.LeaveType{},
		&balance.LeaveBalance{},
		&leave.LeaveRequest{},
		&kafka.OutboxEvent{},
	); err != nil {
		return err
	}

	db, err := gormDB.DB()
	if err != nil {
		return err
	}

	typeRepo := leavetype.NewRepository(gormDB)
	typeService := leavetype.NewService(typeRepo)
	if err := typeService.Seed(context.Background()); err != nil {
		return err
	}

	rdb, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		// Redis only backs idempotency replay and the report cache, so the
		// API stays up without it.
		logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		rdb = nil
	} else {
		logger.Info("redis connection established")
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	registerModules(router, db, gormDB, rdb, typeRepo, typeService)

	return nil
}

func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:5173"}
	}
	return strings.Split(raw, ",")
}
