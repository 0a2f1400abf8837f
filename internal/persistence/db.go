package persistence

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"health-records-service/internal/domain/entities"
)

// OpenPostgres connects to the authoritative store.
func OpenPostgres(dsn string, verbose bool) (*gorm.DB, error) {
	logMode := logger.Warn
	if verbose {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the health record and audit tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.HealthRecord{}, &entities.AuditEntry{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
