package main

import (
	"context"
	"fmt"

	"hardware-request-system/internal/repositories"
	"hardware-request-system/internal/repositories/memory"
	"hardware-request-system/internal/routes"
	"hardware-request-system/migrations"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/database/postgresql"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// openStorage собирает хранилища под выбранный драйвер. cleanup закрывает всё открытое.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repos routes.Repositories, cleanup func(), err error) {
	var closers []func()
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Используется in-memory хранилище: данные пропадут при перезапуске")
		store := memory.NewStore()
		repos = routes.Repositories{
			TxManager: store,
			Users:     store,
			Hardware:  store,
			Requests:  store,
			History:   store,
		}
	case config.StorageDriverPostgres:
		dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
		if err != nil {
			return repos, cleanup, err
		}
		closers = append(closers, dbConn.Close)

		if cfg.Postgres.MigrateOnStart {
			if err := migrations.Up(ctx, dbConn); err != nil {
				return repos, cleanup, err
			}
			logger.Info("Миграции применены")
		}

		repos = routes.Repositories{
			TxManager: repositories.NewTxManager(dbConn),
			Users:     repositories.NewUserRepository(dbConn, logger),
			Hardware:  repositories.NewHardwareRepository(dbConn, logger),
			Requests:  repositories.NewRequestRepository(dbConn, logger),
			History:   repositories.NewRequestHistoryRepository(dbConn),
		}
	default:
		return repos, cleanup, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.Storage.Driver)
	}

	if cfg.Redis.Address == "" {
		repos.Cache = memory.NewCache()
		return repos, cleanup, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = redisClient.Close() })
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return repos, cleanup, fmt.Errorf("не удалось подключиться к Redis (%s): %w", cfg.Redis.Address, err)
	}
	repos.Cache = repositories.NewRedisCacheRepository(redisClient)

	return repos, cleanup, nil
}
