package permissions

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/pkg/logger"
)

// GormStore implements the template and override stores on top of gorm.
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

var (
	_ TemplateStore  = (*GormStore)(nil)
	_ OverrideStore  = (*GormStore)(nil)
	_ TemplateWriter = (*GormStore)(nil)
)

// NewGormStore constructs a store backed by the provided database.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("permission store: db is required")
	}
	return &GormStore{db: db, log: logger.WithModule("permissions")}, nil
}

// FindTemplatePermissions returns permissions with an allowed template row for role.
func (s *GormStore) FindTemplatePermissions(ctx context.Context, role Role) ([]Permission, error) {
	var keys []string
	if err := s.db.WithContext(ensureContext(ctx)).
		Model(&models.RolePermission{}).
		Where("role = ? AND allowed = ?", role.String(), true).
		Order("permission ASC").
		Pluck("permission", &keys).Error; err != nil {
		return nil, err
	}

	perms := make([]Permission, 0, len(keys))
	for _, key := range keys {
		perm, err := ParsePermission(key)
		if err != nil {
			s.log.Warn("skipping uncatalogued template permission",
				zap.String("role", role.String()),
				zap.String("permission", key),
			)
			continue
		}
		perms = append(perms, perm)
	}
	return perms, nil
}

// FindOverrides returns unattributed overrides for membershipID, oldest write
// first so that duplicate rows resolve to the latest one.
func (s *GormStore) FindOverrides(ctx context.Context, membershipID string) ([]Override, error) {
	var rows []models.MemberPermission
	if err := s.db.WithContext(ensureContext(ctx)).
		Select("permission", "allowed", "updated_at", "id").
		Where("membership_id = ? AND role_source IS NULL", membershipID).
		Order("updated_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	overrides := make([]Override, 0, len(rows))
	for _, row := range rows {
		perm, err := ParsePermission(row.Permission)
		if err != nil {
			s.log.Warn("skipping uncatalogued permission override",
				zap.String("membership_id", membershipID),
				zap.String("permission", row.Permission),
			)
			continue
		}
		overrides = append(overrides, Override{Permission: perm, Allowed: row.Allowed})
	}
	return overrides, nil
}

// UpsertTemplate writes entry keyed by (role, permission), refreshing
// updated_at on conflict.
func (s *GormStore) UpsertTemplate(ctx context.Context, entry TemplateEntry) error {
	record := models.RolePermission{
		Role:       entry.Role.String(),
		Permission: entry.Permission.String(),
		Allowed:    entry.Allowed,
	}

	return s.db.WithContext(ensureContext(ctx)).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}, {Name: "permission"}},
		DoUpdates: clause.AssignmentColumns([]string{"allowed", "updated_at"}),
	}).Create(&record).Error
}
