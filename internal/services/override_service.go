package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/auditctx"
	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
	apperrors "github.com/charlesng35/clubhouse/pkg/errors"
	"github.com/charlesng35/clubhouse/pkg/validator"
)

var registerRulesOnce sync.Once

func registerValidationRules() {
	registerRulesOnce.Do(func() {
		_ = validator.RegisterStringRule("club_permission", func(value string) bool {
			_, err := permissions.ParsePermission(value)
			return err == nil
		})
	})
}

// OverrideView is the API representation of a member-specific override.
type OverrideView struct {
	Permission  string    `json:"permission"`
	Allowed     bool      `json:"allowed"`
	Reason      string    `json:"reason,omitempty"`
	GrantedByID string    `json:"granted_by_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetOverrideInput describes a grant or revoke for one permission.
type SetOverrideInput struct {
	Permission string `json:"permission" validate:"required,club_permission"`
	Allowed    *bool  `json:"allowed" validate:"required"`
	Reason     string `json:"reason" validate:"max=255"`
}

type overrideMetadata struct {
	Reason string `json:"reason,omitempty"`
}

// OverrideService manages member-specific permission overrides. Only rows
// without a role source are touched.
type OverrideService struct {
	db           *gorm.DB
	auditService *AuditService
	invalidator  CacheInvalidator
}

// NewOverrideService constructs an OverrideService. audit and invalidator are
// optional.
func NewOverrideService(db *gorm.DB, audit *AuditService, invalidator CacheInvalidator) (*OverrideService, error) {
	if db == nil {
		return nil, errors.New("override service: db is required")
	}
	registerValidationRules()
	return &OverrideService{db: db, auditService: audit, invalidator: invalidator}, nil
}

// List returns the unattributed overrides for membershipID ordered by permission.
func (s *OverrideService) List(ctx context.Context, membershipID string) ([]OverrideView, error) {
	ctx = ensureContext(ctx)

	var rows []models.MemberPermission
	if err := s.db.WithContext(ctx).
		Where("membership_id = ? AND role_source IS NULL", trimmed(membershipID)).
		Order("permission ASC").
		Order("updated_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("override service: list: %w", err)
	}

	// Duplicate rows collapse to the latest write, matching resolution.
	latest := make(map[string]models.MemberPermission, len(rows))
	for _, row := range rows {
		latest[row.Permission] = row
	}

	views := make([]OverrideView, 0, len(latest))
	for _, row := range latest {
		views = append(views, toOverrideView(row))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Permission < views[j].Permission })
	return views, nil
}

// Set records a grant or revoke for one permission, replacing any previous
// unattributed override of the same permission.
func (s *OverrideService) Set(ctx context.Context, membershipID string, input SetOverrideInput) (*OverrideView, error) {
	ctx = ensureContext(ctx)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}
	perm, err := permissions.ParsePermission(input.Permission)
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	membership, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(overrideMetadata{Reason: trimmed(input.Reason)})
	if err != nil {
		return nil, fmt.Errorf("override service: marshal metadata: %w", err)
	}

	var grantedBy *string
	if actor, ok := auditctx.FromContext(ctx); ok && actor.UserID != "" {
		id := actor.UserID
		grantedBy = &id
	}

	record := models.MemberPermission{
		MembershipID: membership.ID,
		Permission:   perm.String(),
		Allowed:      *input.Allowed,
		GrantedByID:  grantedBy,
		Metadata:     datatypes.JSON(metadata),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("membership_id = ? AND permission = ? AND role_source IS NULL", membership.ID, perm.String()).
			Delete(&models.MemberPermission{}).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("override service: set: %w", err)
	}

	invalidateCache(ctx, s.invalidator, membership.ID)

	recordAudit(s.auditService, ctx, AuditEntry{
		ClubID:       membership.ClubID,
		MembershipID: membership.ID,
		Action:       "permission.override.set",
		Resource:     perm.String(),
		Result:       "success",
		Metadata: map[string]any{
			"allowed": record.Allowed,
			"reason":  trimmed(input.Reason),
		},
	})

	view := toOverrideView(record)
	return &view, nil
}

// Clear removes the unattributed override for permission so the member falls
// back to the role template.
func (s *OverrideService) Clear(ctx context.Context, membershipID, permission string) error {
	ctx = ensureContext(ctx)

	perm, err := permissions.ParsePermission(permission)
	if err != nil {
		return apperrors.NewBadRequest(err.Error())
	}

	membership, err := s.loadMembership(ctx, membershipID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("membership_id = ? AND permission = ? AND role_source IS NULL", membership.ID, perm.String()).
		Delete(&models.MemberPermission{})
	if result.Error != nil {
		return fmt.Errorf("override service: clear: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOverrideNotFound
	}

	invalidateCache(ctx, s.invalidator, membership.ID)

	recordAudit(s.auditService, ctx, AuditEntry{
		ClubID:       membership.ClubID,
		MembershipID: membership.ID,
		Action:       "permission.override.clear",
		Resource:     perm.String(),
		Result:       "success",
	})

	return nil
}

func (s *OverrideService) loadMembership(ctx context.Context, membershipID string) (*models.Membership, error) {
	membershipID = trimmed(membershipID)
	if membershipID == "" {
		return nil, ErrMembershipNotFound
	}

	var membership models.Membership
	if err := s.db.WithContext(ctx).First(&membership, "id = ?", membershipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("override service: load membership: %w", err)
	}
	return &membership, nil
}

func toOverrideView(row models.MemberPermission) OverrideView {
	view := OverrideView{
		Permission: row.Permission,
		Allowed:    row.Allowed,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.GrantedByID != nil {
		view.GrantedByID = *row.GrantedByID
	}
	if len(row.Metadata) > 0 {
		var meta overrideMetadata
		if err := json.Unmarshal(row.Metadata, &meta); err == nil {
			view.Reason = meta.Reason
		}
	}
	return view
}
