package storage

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nutriscan/backend/config"
)

// Open connects to Postgres and migrates the schema.
func Open(cfg config.DatabaseConfig, log *zap.SugaredLogger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Infow("connected to postgres", "host", cfg.Host, "database", cfg.Name)
	return db, nil
}

// Migrate creates or updates the tables used by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&itemRow{},
		&ruleRow{},
		&scoreRow{},
		&profileRow{},
	); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}
