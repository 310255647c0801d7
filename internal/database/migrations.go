package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Membership{},
		&models.RolePermission{},
		&models.MemberPermission{},
		&models.AuditLog{},
	)
}

// SeedData upserts the default role permission template.
func SeedData(ctx context.Context, db *gorm.DB) (permissions.SeedReport, error) {
	store, err := permissions.NewGormStore(db)
	if err != nil {
		return permissions.SeedReport{}, err
	}
	return permissions.Seed(ctx, store, permissions.DefaultMatrix())
}
