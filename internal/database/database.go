package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mediscan-back/internal/models"
)

// InitDB opens the postgres connection used for user accounts.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "host=localhost user=mediscan password=mediscan dbname=mediscan port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// MigrateDB runs the schema migrations.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}
