// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/technotronz/symposium/internal/database"
	"github.com/technotronz/symposium/internal/models"
)

// NewDB returns a migrated SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_foreign_keys=off"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(conn))
	return conn
}

// CreateUser inserts a user with a completed profile unless overridden by mutate.
func CreateUser(t *testing.T, db *gorm.DB, email string, mutate ...func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		Name:                  "Eleven",
		Email:                 email,
		PasswordHash:          "x",
		TzID:                  "TZ26-" + email,
		CollegeName:           "Hawkins High",
		MobileNumber:          "9876543210",
		YearOfStudy:           "3",
		Department:            "ECE",
		RegistrationCompleted: true,
		Role:                  models.RoleUser,
	}
	for _, fn := range mutate {
		fn(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
