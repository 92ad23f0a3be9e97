package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-canteen-api/models"

	"github.com/cenkalti/backoff/v5"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models is every table the API migrates
var Models = []any{
	&models.User{},
	&models.Admin{},
	&models.MenuItem{},
	&models.Rating{},
	&models.Order{},
	&models.OrderItem{},
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite", "":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// GormConfig is shared by the server and tests
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		// Order lines keep pointing at deleted menu items
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// OpenDB connects with fixed-interval retries, then migrates all models.
func OpenDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	dial, err := dialector(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	attempts := cfg.DBConnectAttempts
	if attempts == 0 {
		attempts = 1
	}
	db, err := backoff.Retry(ctx, func() (*gorm.DB, error) {
		db, err := gorm.Open(dial, GormConfig())
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return db, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.DBConnectBackoff)),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("database connection failed, retrying", "driver", cfg.DBDriver, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.DBDriver == "sqlite" || cfg.DBDriver == "" {
		// sqlite has a single writer; serialise through one connection
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("database connected and migrated", "driver", cfg.DBDriver)
	return db, nil
}
