package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-erp-agent/internal/config"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CollectionRecord holds one JSON-encoded collection.
type CollectionRecord struct {
	Name      string `gorm:"primaryKey;size:64"`
	Data      string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (CollectionRecord) TableName() string {
	return "erp_collections"
}

// SessionRecord holds one JSON-encoded session.
type SessionRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Data      string    `gorm:"type:text"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (SessionRecord) TableName() string {
	return "erp_sessions"
}

// Connect opens the configured database, retrying while it comes up, and
// migrates the collection and session tables.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is empty, set DB_DSN")
	}
	dialector, err := open(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 5
	}

	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
		})
		if err == nil {
			break
		}
		log.Warn("failed to connect to database, retrying",
			zap.String("driver", cfg.Driver),
			zap.Int("attempt", i+1),
			zap.Int("max", attempts),
			zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.Driver, attempts, err)
	}
	log.Info("connected to database", zap.String("driver", cfg.Driver))

	if cfg.Driver == "sqlite" {
		// One connection serializes writers; concurrent SQLite transactions
		// that upgrade from read to write fail with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database schema synced")
	return db, nil
}

// Migrate creates or updates the tables the gorm store needs.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CollectionRecord{}, &SessionRecord{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func open(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql", "":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); dir != "." && cfg.DSN != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func logLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
