package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/order-console/internal/health"
	"github.com/vladislavdragonenkov/order-console/internal/storage/memory"
	"github.com/vladislavdragonenkov/order-console/internal/storage/postgres"
)

// runtimeDependencies — хранилище журнала активности и его проверка здоровья.
type runtimeDependencies struct {
	journal        domain.ActivityRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies поднимает журнал активности выбранного драйвера.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("activity journal: in-memory storage")
		return &runtimeDependencies{
			journal: memory.NewActivityRepository(),
			closeFn: func() error { return nil },
		}, nil
	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, fmt.Errorf("postgres storage requires %sPOSTGRES_DSN", EnvPrefix)
		}

		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			version, count, err := store.MigrationStatus(ctx)
			if err == nil {
				logger.WithFields(log.Fields{"version": version, "applied": count}).Info("postgres migrations applied")
			}
		}

		logger.Info("activity journal: postgres storage")
		return &runtimeDependencies{
			journal:        postgres.NewActivityRepository(store),
			storageChecker: healthcheck.NewFuncChecker("storage", store.Ping),
			closeFn:        store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
