package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/funilzap/crm-funnel-backend/internal/models"
)

// InitDB opens the embedded SQLite database and performs migrations
func InitDB(dbPath string) (*gorm.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Configure GORM logger
	gormLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite serializes writes internally; a single connection avoids
	// SQLITE_BUSY under concurrent request handlers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Pragmas for a low-throughput single-file store
	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		logrus.Warnf("Failed to enable WAL mode: %v", err)
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		logrus.Warnf("Failed to set busy timeout: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		logrus.Warnf("Failed to enable foreign keys: %v", err)
	}

	// Auto migrate the schema
	err = db.AutoMigrate(
		&models.Lead{},
		&models.ActionLog{},
		&models.ManualReview{},
		&models.AnalyticsEvent{},
		&models.User{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("Database connection established and migrations completed")
	return db, nil
}

// CleanDatabase truncates every funnel table. This is the only delete path
// for leads, logs, reviews and analytics events.
func CleanDatabase(db *gorm.DB) error {
	tables := []string{"leads", "action_logs", "manual_reviews", "analytics_events"}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("failed to clean table %s: %w", table, err)
		}
	}
	return nil
}
