// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// gen_random_uuid needs pgcrypto on older Postgres
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.AssetRecord{},
		&models.IPGroup{},
		&models.PILTemplate{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Asset indexes
		"CREATE INDEX IF NOT EXISTS idx_asset_metadata_creator ON asset_metadata(creator_address)",
		"CREATE INDEX IF NOT EXISTS idx_asset_metadata_token ON asset_metadata(token_id)",
		"CREATE INDEX IF NOT EXISTS idx_asset_metadata_ip_asset ON asset_metadata(ip_asset_id)",
		"CREATE INDEX IF NOT EXISTS idx_asset_metadata_group ON asset_metadata(group_id)",
		"CREATE INDEX IF NOT EXISTS idx_asset_metadata_created_at ON asset_metadata(created_at DESC)",

		// Group indexes
		"CREATE INDEX IF NOT EXISTS idx_ip_groups_creator ON ip_groups(creator_address)",
		"CREATE INDEX IF NOT EXISTS idx_ip_groups_group_id ON ip_groups(group_id)",

		// License template lookup
		"CREATE INDEX IF NOT EXISTS idx_pil_terms_template ON pil_terms(pil_terms_id)",

		// Full-text search over asset names and descriptions
		"CREATE INDEX IF NOT EXISTS idx_asset_metadata_search ON asset_metadata USING GIN(to_tsvector('english', asset_name || ' ' || coalesce(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData inserts the six default PIL templates if absent.
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	for _, template := range models.DefaultPILTemplates {
		var count int64
		db.Model(&models.PILTemplate{}).Where("pil_terms_id = ?", template.PILTermsID).Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&template).Error; err != nil {
			log.Printf("Warning: Failed to seed license template %s: %v", template.PILTermsID, err)
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// WithTransaction runs fn inside a transaction with rollback on error or panic.
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
