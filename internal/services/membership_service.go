package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
	apperrors "github.com/charlesng35/clubhouse/pkg/errors"
)

// CacheInvalidator drops cached permission sets for a membership.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, membershipID string) error
}

// MembershipService reads and maintains club memberships.
type MembershipService struct {
	db           *gorm.DB
	auditService *AuditService
	invalidator  CacheInvalidator
}

// NewMembershipService constructs a MembershipService. audit and invalidator
// are optional.
func NewMembershipService(db *gorm.DB, audit *AuditService, invalidator CacheInvalidator) (*MembershipService, error) {
	if db == nil {
		return nil, errors.New("membership service: db is required")
	}
	return &MembershipService{db: db, auditService: audit, invalidator: invalidator}, nil
}

// CreateMembershipInput describes the payload accepted by Create.
type CreateMembershipInput struct {
	ClubID string
	UserID string
	Role   string
}

// Get loads a membership by id.
func (s *MembershipService) Get(ctx context.Context, id string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	id = trimmed(id)
	if id == "" {
		return nil, ErrMembershipNotFound
	}

	var membership models.Membership
	if err := s.db.WithContext(ctx).First(&membership, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("membership service: get: %w", err)
	}
	return &membership, nil
}

// FindByClubAndUser loads the membership linking userID to clubID.
func (s *MembershipService) FindByClubAndUser(ctx context.Context, clubID, userID string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	clubID, userID = trimmed(clubID), trimmed(userID)
	if clubID == "" || userID == "" {
		return nil, ErrMembershipNotFound
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("membership service: find: %w", err)
	}
	return &membership, nil
}

// Create registers a membership. New memberships default to PENDING.
func (s *MembershipService) Create(ctx context.Context, input CreateMembershipInput) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	clubID, userID := trimmed(input.ClubID), trimmed(input.UserID)
	if clubID == "" || userID == "" {
		return nil, apperrors.NewBadRequest("club id and user id are required")
	}

	role := permissions.RolePending
	if trimmed(input.Role) != "" {
		parsed, err := permissions.ParseRole(input.Role)
		if err != nil {
			return nil, apperrors.NewBadRequest(err.Error())
		}
		role = parsed
	}

	membership := &models.Membership{ClubID: clubID, UserID: userID, Role: role.String()}
	if err := s.db.WithContext(ctx).Create(membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrMembershipExists
		}
		return nil, fmt.Errorf("membership service: create: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ClubID:       clubID,
		MembershipID: membership.ID,
		Action:       "membership.create",
		Resource:     role.String(),
		Result:       "success",
		Metadata:     map[string]any{"user_id": userID},
	})

	return membership, nil
}

// ChangeRole moves a membership to role and drops its cached permission sets.
func (s *MembershipService) ChangeRole(ctx context.Context, id, role string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	next, err := permissions.ParseRole(role)
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	membership, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := membership.Role
	if previous == next.String() {
		return membership, nil
	}

	if err := s.db.WithContext(ctx).Model(membership).Update("role", next.String()).Error; err != nil {
		return nil, fmt.Errorf("membership service: change role: %w", err)
	}
	membership.Role = next.String()

	s.invalidate(ctx, membership.ID)

	recordAudit(s.auditService, ctx, AuditEntry{
		ClubID:       membership.ClubID,
		MembershipID: membership.ID,
		Action:       "membership.role.change",
		Resource:     next.String(),
		Result:       "success",
		Metadata:     map[string]any{"previous_role": previous},
	})

	return membership, nil
}

func (s *MembershipService) invalidate(ctx context.Context, membershipID string) {
	invalidateCache(ctx, s.invalidator, membershipID)
}

// ToPermissionMembership converts a stored membership into the resolver's
// view of it.
func ToPermissionMembership(m *models.Membership) (permissions.Membership, error) {
	if m == nil {
		return permissions.Membership{}, fmt.Errorf("%w: nil membership", permissions.ErrInvalidMembership)
	}
	role, err := permissions.ParseRole(m.Role)
	if err != nil {
		return permissions.Membership{}, err
	}
	return permissions.Membership{ID: m.ID, ClubID: m.ClubID, Role: role}, nil
}
