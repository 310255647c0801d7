package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/clubhouse/internal/auditctx"
	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
	"github.com/charlesng35/clubhouse/internal/services"
	apperrors "github.com/charlesng35/clubhouse/pkg/errors"
	"github.com/charlesng35/clubhouse/pkg/logger"
	"github.com/charlesng35/clubhouse/pkg/response"
)

// MembershipLookup finds the acting user's membership in a club.
type MembershipLookup interface {
	FindByClubAndUser(ctx context.Context, clubID, userID string) (*models.Membership, error)
}

// PermissionChecker decides whether a membership holds every, or any, of the
// listed permissions.
type PermissionChecker interface {
	CheckAll(ctx context.Context, m permissions.Membership, perms ...permissions.Permission) (bool, error)
	CheckAny(ctx context.Context, m permissions.Membership, perms ...permissions.Permission) (bool, error)
}

type matchMode int

const (
	matchAll matchMode = iota
	matchAny
)

// RequireClubPermission resolves the caller's membership in the :clubID club
// and requires every permission in perms. With no perms only membership is
// required. Resolution errors produce a 500 and never grant access.
func RequireClubPermission(checker PermissionChecker, memberships MembershipLookup, perms ...permissions.Permission) gin.HandlerFunc {
	return clubGuard(checker, memberships, matchAll, perms)
}

// RequireAnyClubPermission is RequireClubPermission satisfied by any one of
// perms. An empty list denies every request.
func RequireAnyClubPermission(checker PermissionChecker, memberships MembershipLookup, perms ...permissions.Permission) gin.HandlerFunc {
	return clubGuard(checker, memberships, matchAny, perms)
}

func clubGuard(checker PermissionChecker, memberships MembershipLookup, mode matchMode, perms []permissions.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		clubID := strings.TrimSpace(c.Param("clubID"))
		record, err := memberships.FindByClubAndUser(c.Request.Context(), clubID, userID)
		if err != nil {
			if errors.Is(err, services.ErrMembershipNotFound) {
				response.Error(c, apperrors.ErrNotMember)
			} else {
				response.Error(c, apperrors.ErrPermissionCheckFailed.WithInternal(err))
			}
			c.Abort()
			return
		}

		membership, err := services.ToPermissionMembership(record)
		if err != nil {
			response.Error(c, apperrors.ErrPermissionCheckFailed.WithInternal(err))
			c.Abort()
			return
		}

		if len(perms) > 0 || mode == matchAny {
			check := checker.CheckAll
			if mode == matchAny {
				check = checker.CheckAny
			}
			allowed, err := check(c.Request.Context(), membership, perms...)
			if err != nil {
				response.Error(c, apperrors.ErrPermissionCheckFailed.WithInternal(err))
				c.Abort()
				return
			}
			if !allowed {
				logger.WithModule("permissions").Debug("permission denied",
					zap.String("club_id", clubID),
					zap.String("membership_id", membership.ID),
					zap.Any("required", perms),
				)
				response.Error(c, apperrors.ErrForbidden)
				c.Abort()
				return
			}
		}

		c.Set(CtxMembershipKey, membership)
		actor, _ := auditctx.FromContext(c.Request.Context())
		actor.UserID = userID
		actor.ClubID = membership.ClubID
		actor.MembershipID = membership.ID
		c.Request = c.Request.WithContext(auditctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// ActingMembership returns the membership resolved by RequireClubPermission.
func ActingMembership(c *gin.Context) (permissions.Membership, bool) {
	v, ok := c.Get(CtxMembershipKey)
	if !ok {
		return permissions.Membership{}, false
	}
	m, ok := v.(permissions.Membership)
	return m, ok
}
