package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"journal-pulse/models"
)

// newTestDB opens an isolated in-memory database with the full schema
// migrated. Each test gets its own database, named after the test so
// parallel tests cannot share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// The importer runs file transactions concurrently; a single pooled
	// connection serializes them so sqlite never reports a locked table.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.University{}, &models.Journal{},
		&models.Subscription{}, &models.BrowsingEvent{}, &models.ImportRun{})
	require.NoError(t, err)

	return db
}
