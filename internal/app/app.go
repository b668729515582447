package app

import (
	"github.com/AshapuriCRM/backend/internal/config"
	"github.com/AshapuriCRM/backend/internal/middleware"
	"github.com/AshapuriCRM/backend/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure and registers every route on router.
// The returned cleanup closes the connections.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L().Named("app.api")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database.DSN(), cfg.ConnectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	} else {
		logger.Warn("REDIS_ADDR not set, invoice cache and idempotency disabled")
	}

	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = sqlDB.Close()
	}

	router.Use(middleware.RequestID(), middleware.ContextLogger(zap.L()))

	if err := registerModules(router, cfg, sqlDB, gormDB, rdb, zap.L()); err != nil {
		cleanup()
		return nil, err
	}

	logger.Info("api modules registered")
	return cleanup, nil
}
