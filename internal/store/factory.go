package store

import (
	"context"
	"fmt"

	"go-erp-agent/internal/config"
	"go-erp-agent/internal/database"

	"go.uber.org/zap"
)

// New builds the store selected by cfg.Store.Driver.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	log.Info("initializing store", zap.String("driver", cfg.Store.Driver))
	switch cfg.Store.Driver {
	case "memory", "":
		return NewMemoryStore(), nil
	case "gorm":
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
