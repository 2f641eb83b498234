package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"presence-notify/internal/config"
	"presence-notify/internal/domain"
)

// NewPostgres opens the presence database and migrates its schema.
func NewPostgres(cfg config.DatabaseConfig, env string, logger *zap.Logger) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), GormConfig(env))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := MigrateWithRetry(db, logger, 3); err != nil {
		return nil, err
	}

	logger.Info("PostgreSQL connected and migrated")
	return db, nil
}

// GormConfig stores timestamps in UTC and only logs SQL in dev.
func GormConfig(env string) *gorm.Config {
	level := gormlogger.Silent
	if env == "dev" {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate creates or updates the user_presences table.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	existed := db.Migrator().HasTable(&domain.UserPresence{})
	if err := db.AutoMigrate(&domain.UserPresence{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", domain.UserPresence{}.TableName(), err)
	}
	logger.Info("Migrated table",
		zap.String("table", domain.UserPresence{}.TableName()),
		zap.Bool("was_existing", existed),
	)
	return nil
}

// MigrateWithRetry retries Migrate with a linear backoff.
func MigrateWithRetry(db *gorm.DB, logger *zap.Logger, maxRetries int) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = Migrate(db, logger); err == nil {
			return nil
		}
		if attempt < maxRetries {
			backoff := time.Duration(attempt) * time.Second
			logger.Warn("Migration attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("migration failed after %d attempts: %w", maxRetries, err)
}
