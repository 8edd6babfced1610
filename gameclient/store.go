package gameclient

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lytic-game-system/models"
)

// DefaultDataDir is ~/.lytic, falling back to the working directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lytic"
	}
	return filepath.Join(home, ".lytic")
}

// OpenLocalDB opens (creating if needed) the client's SQLite file that backs the
// durable queue and the stats cache.
func OpenLocalDB(dataDir string) (*gorm.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "lytic.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err := db.AutoMigrate(&models.QueuedRecord{}, &models.LocalStats{}, &models.LocalStatsSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}
	return db, nil
}

// CloseDB releases the underlying sql.DB.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
