package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/betslib/feedsync/internal/db/models"
	"github.com/betslib/feedsync/internal/db/repos"
)

// setupTestDB creates an in-memory database with migrations applied
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create in-memory database")

	require.NoError(t, db.AutoMigrate(&models.BackgroundJob{}, &models.IntegrationStatus{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupJobRepo(t *testing.T) *repos.JobRepository {
	t.Helper()
	return repos.NewJobRepository(setupTestDB(t))
}

func setupIntegrationRepo(t *testing.T) *repos.IntegrationRepository {
	t.Helper()
	return repos.NewIntegrationRepository(setupTestDB(t))
}
