package persistence

import (
	"testing"

	"github.com/belgrano/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory sqlite database with the given tables
func setupTestDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a new database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func setupStorefrontDB(t *testing.T) *gorm.DB {
	return setupTestDB(t, models.StorefrontModels()...)
}

func setupTicketingDB(t *testing.T) *gorm.DB {
	return setupTestDB(t, models.TicketingModels()...)
}
