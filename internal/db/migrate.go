package db

import (
	"fmt"

	"github.com/zulandar/spindle/internal/config"
	"github.com/zulandar/spindle/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the GORM models managed by Spindle.
func AllModels() []interface{} {
	return []interface{}{
		&models.Job{},
		&models.ArchivedJob{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// DropAll removes every Spindle table.
func DropAll(db *gorm.DB) error {
	if err := db.Migrator().DropTable(AllModels()...); err != nil {
		return fmt.Errorf("db: drop tables: %w", err)
	}
	return nil
}

// Open connects with cfg and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormDB, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(gormDB); err != nil {
		Close(gormDB)
		return nil, err
	}
	return gormDB, nil
}

// OpenMemory returns a migrated in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	return Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
}

// Counts reports the number of live and archived rows.
func Counts(db *gorm.DB) (jobs, archived int64, err error) {
	if err = db.Model(&models.Job{}).Count(&jobs).Error; err != nil {
		return 0, 0, fmt.Errorf("db: count jobs: %w", err)
	}
	if err = db.Model(&models.ArchivedJob{}).Count(&archived).Error; err != nil {
		return 0, 0, fmt.Errorf("db: count archive: %w", err)
	}
	return jobs, archived, nil
}
