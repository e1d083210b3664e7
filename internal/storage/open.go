package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasksync/internal/config"
)

// Open initializes the storage implementation named by the config:
// "postgres" for production, "sqlite" for single-machine local runs,
// "memory" for demo mode.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Storage.Path), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return NewGormStorage(db)
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), gormConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return NewGormStorage(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}
