package database

import (
	"testing"

	"logiflow/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestMigrate_CreatesSessionExpiryIndex(t *testing.T) {
	db := openTestDB(t)

	assert.True(t, db.Migrator().HasTable(&model.Session{}))
	assert.True(t, db.Migrator().HasIndex(&model.Session{}, "idx_sessions_expires_at"))
	assert.True(t, db.Migrator().HasTable("role_permissions"))
}

func TestBackfillUserRoles(t *testing.T) {
	db := openTestDB(t)

	manager := model.Role{Name: model.RoleManager, DisplayName: "Manager"}
	require.NoError(t, db.Create(&manager).Error)

	legacy := model.User{Username: "legacy", Email: "legacy@example.com", Name: "Legacy", Role: model.RoleManager, Password: "x"}
	require.NoError(t, db.Create(&legacy).Error)

	n, err := BackfillUserRoles(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var ur model.UserRole
	require.NoError(t, db.First(&ur, "user_id = ?", legacy.ID).Error)
	assert.Equal(t, manager.ID, ur.RoleID)

	n, err = BackfillUserRoles(db)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Info, ParseLogLevel("info"))
	assert.Equal(t, logger.Warn, ParseLogLevel("bogus"))
}
