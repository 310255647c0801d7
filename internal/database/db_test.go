package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
	require.NoError(t, Ping(context.Background(), db))
}

func TestOpenSQLiteMemoryHandlesAreIsolated(t *testing.T) {
	first := openTestDB(t)
	second := openTestDB(t)

	require.NoError(t, AutoMigrate(first))
	require.False(t, second.Migrator().HasTable(&models.Membership{}))
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clubhouse.db")

	db, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("SELECT 1").Error)
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrateAndSeed(context.Background(), db))

	expected := int64(len(permissions.DefaultMatrix().Expand()))
	require.Equal(t, expected, countTemplateRows(t, db))

	var denied int64
	require.NoError(t, db.Model(&models.RolePermission{}).Where("allowed = ?", false).Count(&denied).Error)
	require.Zero(t, denied)
}

func TestSeedDataIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, AutoMigrateAndSeed(ctx, db))
	first := countTemplateRows(t, db)

	report, err := SeedData(ctx, db)
	require.NoError(t, err)
	require.Equal(t, int(first), report.Rows)
	require.Equal(t, len(permissions.DefaultMatrix()), report.Permissions)

	_, err = SeedData(ctx, db)
	require.NoError(t, err)
	require.Equal(t, first, countTemplateRows(t, db))
}

func TestSeedDataRestoresTamperedTemplateRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, AutoMigrateAndSeed(ctx, db))
	require.NoError(t, db.Model(&models.RolePermission{}).
		Where("role = ? AND permission = ?", "NORMAL", "CLUB_VIEW").
		Update("allowed", false).Error)

	_, err := SeedData(ctx, db)
	require.NoError(t, err)

	var row models.RolePermission
	require.NoError(t, db.Where("role = ? AND permission = ?", "NORMAL", "CLUB_VIEW").First(&row).Error)
	require.True(t, row.Allowed)
}

func TestAutoMigrateAndSeedRejectsNilDB(t *testing.T) {
	require.Error(t, AutoMigrateAndSeed(context.Background(), nil))
}

func countTemplateRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.RolePermission{}).Count(&count).Error)
	return count
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
