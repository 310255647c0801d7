package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
)

// RoleTemplate lists the permissions a role is granted by the stored
// template. Drift names permissions the default matrix grants the role that
// the stored template does not.
type RoleTemplate struct {
	Role        string   `json:"role"`
	Rank        int      `json:"rank"`
	Permissions []string `json:"permissions"`
	Drift       []string `json:"drift,omitempty"`
}

// MatrixService exposes the seeded role template.
type MatrixService struct {
	db *gorm.DB
}

// NewMatrixService constructs a MatrixService.
func NewMatrixService(db *gorm.DB) (*MatrixService, error) {
	if db == nil {
		return nil, errors.New("matrix service: db is required")
	}
	return &MatrixService{db: db}, nil
}

// Templates returns the allowed template rows grouped by role, lowest
// privilege first. Every role appears even when it has no rows.
func (s *MatrixService) Templates(ctx context.Context) ([]RoleTemplate, error) {
	ctx = ensureContext(ctx)

	var rows []models.RolePermission
	if err := s.db.WithContext(ctx).
		Where("allowed = ?", true).
		Order("permission ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("matrix service: templates: %w", err)
	}

	byRole := make(map[string][]string, len(rows))
	for _, row := range rows {
		byRole[row.Role] = append(byRole[row.Role], row.Permission)
	}

	defaults := permissions.DefaultMatrix()
	roles := permissions.Hierarchy()
	out := make([]RoleTemplate, 0, len(roles))
	for _, role := range roles {
		perms := byRole[role.String()]
		if perms == nil {
			perms = []string{}
		}
		out = append(out, RoleTemplate{
			Role:        role.String(),
			Rank:        role.Rank(),
			Permissions: perms,
			Drift:       missingDefaults(defaults.PermissionsFor(role), perms),
		})
	}
	return out, nil
}

func missingDefaults(defaults []permissions.Permission, stored []string) []string {
	have := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		have[p] = struct{}{}
	}
	var missing []string
	for _, p := range defaults {
		if _, ok := have[p.String()]; !ok {
			missing = append(missing, p.String())
		}
	}
	return missing
}

// Reseed upserts the default matrix into the template store, clearing any
// drift reported by Templates.
func (s *MatrixService) Reseed(ctx context.Context) (permissions.SeedReport, error) {
	store, err := permissions.NewGormStore(s.db)
	if err != nil {
		return permissions.SeedReport{}, err
	}
	return permissions.Seed(ensureContext(ctx), store, permissions.DefaultMatrix())
}
