package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradeyard/marketplace-backend/internal/database"
	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// setupTestDB opens an isolated in-memory SQLite database with the full
// schema. Connections are capped at one so every query sees the same
// in-memory store.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestListing(t *testing.T, db *gorm.DB, seller *models.User, title string, price float64) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		Title:       title,
		Description: "description of " + title,
		Price:       price,
		Category:    "Electronics",
		Location:    "Springfield",
		SellerID:    seller.ID,
		Status:      models.StatusAvailable,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}
