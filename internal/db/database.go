package db

import (
	"fmt"

	"storefront/internal/config"
	"storefront/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase(cfg config.DatabaseConfig, development bool) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Error)
	if development {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs database migrations using GORM
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("Running GORM AutoMigrate...")

	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		return fmt.Errorf("failed to run GORM AutoMigrate: %w", err)
	}

	createCustomIndexes(db)

	log.Info().Msg("GORM AutoMigrate completed successfully")
	return nil
}

// customIndexes back the lookups the product layer runs: barcode and
// title+price matching, category listing and image reference counting.
var customIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_products_barcode ON products (TRIM(barcode)) WHERE barcode IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_products_title_price ON products (LOWER(TRIM(title)), price)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (LOWER(TRIM(category))) WHERE is_confirmed`,
	`CREATE INDEX IF NOT EXISTS idx_products_images ON products USING gin (images jsonb_path_ops)`,
}

func createCustomIndexes(db *gorm.DB) {
	for _, idx := range customIndexes {
		if err := db.Exec(idx).Error; err != nil {
			log.Warn().Err(err).Str("statement", idx).Msg("Failed to create index")
		}
	}
}

// RunMigrations is the main migration function called from main.go
func RunMigrations(db *gorm.DB) error {
	log.Info().Msg("Starting database migrations...")

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
