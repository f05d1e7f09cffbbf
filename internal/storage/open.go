package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lemiel/internal/config"
)

// Open создает бэкенд, выбранный в STORAGE_DRIVER
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory storage, state will be lost on restart")
		return NewMemory(logger), nil
	case config.DriverFile:
		return NewFile(cfg.AppDataDir, logger)
	case config.DriverRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, logger)
	case config.DriverPostgres:
		return NewPostgres(ctx, PostgresOptions{
			DSN:        cfg.DatabaseURL,
			MaxRetries: cfg.DBRetryConfig.MaxRetries,
			RetryDelay: cfg.DBRetryConfig.InitialDelay,
		}, logger)
	case config.DriverSQLite:
		return NewSQLite(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
