package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/clubhouse/internal/middleware"
	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
	"github.com/charlesng35/clubhouse/internal/services"
	"github.com/charlesng35/clubhouse/pkg/errors"
	"github.com/charlesng35/clubhouse/pkg/response"
)

// PermissionHandler serves the permission registry, templates, effective
// sets and member overrides.
type PermissionHandler struct {
	checker     *permissions.Checker
	memberships *services.MembershipService
	overrides   *services.OverrideService
	matrix      *services.MatrixService
}

func NewPermissionHandler(checker *permissions.Checker, memberships *services.MembershipService, overrides *services.OverrideService, matrix *services.MatrixService) (*PermissionHandler, error) {
	if checker == nil || memberships == nil || overrides == nil || matrix == nil {
		return nil, fmt.Errorf("permission handler: checker and services are required")
	}
	return &PermissionHandler{
		checker:     checker,
		memberships: memberships,
		overrides:   overrides,
		matrix:      matrix,
	}, nil
}

type roleInfo struct {
	ID   permissions.Role `json:"id"`
	Rank int              `json:"rank"`
}

type effectivePermissions struct {
	MembershipID string          `json:"membership_id"`
	ClubID       string          `json:"club_id"`
	Role         string          `json:"role"`
	Permissions  permissions.Set `json:"permissions"`
}

type changeRoleBody struct {
	Role string `json:"role"`
}

type setOverrideBody struct {
	Allowed *bool  `json:"allowed"`
	Reason  string `json:"reason"`
}

// GET /api/permissions/registry?module=
func (h *PermissionHandler) Registry(c *gin.Context) {
	roles := make([]roleInfo, 0, len(permissions.Hierarchy()))
	for _, role := range permissions.Hierarchy() {
		roles = append(roles, roleInfo{ID: role, Rank: role.Rank()})
	}

	defs := permissions.All()
	if module := strings.ToLower(strings.TrimSpace(c.Query("module"))); module != "" {
		defs = permissions.ByModule(module)
		if defs == nil {
			defs = []permissions.Definition{}
		}
	}
	response.Success(c, http.StatusOK, gin.H{
		"roles":       roles,
		"permissions": defs,
	})
}

// GET /api/permissions/matrix
func (h *PermissionHandler) Matrix(c *gin.Context) {
	templates, err := h.matrix.Templates(requestContext(c))
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, templates)
}

// GET /api/clubs/:clubID/permissions/my
func (h *PermissionHandler) MyPermissions(c *gin.Context) {
	membership, ok := middleware.ActingMembership(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	h.writeEffective(c, membership)
}

// GET /api/clubs/:clubID/memberships/:membershipID/permissions
func (h *PermissionHandler) MemberPermissions(c *gin.Context) {
	record, err := h.clubMembership(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	membership, err := services.ToPermissionMembership(record)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	h.writeEffective(c, membership)
}

// POST /api/clubs/:clubID/memberships
func (h *PermissionHandler) Join(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	record, err := h.memberships.Create(requestContext(c), services.CreateMembershipInput{
		ClubID: clubParam(c),
		UserID: userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// PUT /api/clubs/:clubID/memberships/:membershipID/role
func (h *PermissionHandler) ChangeRole(c *gin.Context) {
	var body changeRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewBadRequest("invalid request body"))
		return
	}
	next, err := permissions.ParseRole(body.Role)
	if err != nil {
		response.Error(c, errors.NewBadRequest(err.Error()))
		return
	}

	actor, ok := middleware.ActingMembership(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	record, err := h.clubMembership(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	current, err := permissions.ParseRole(record.Role)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	if !permissions.CanAssign(actor.Role, current, next) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	updated, err := h.memberships.ChangeRole(requestContext(c), record.ID, next.String())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// GET /api/clubs/:clubID/memberships/:membershipID/overrides
func (h *PermissionHandler) ListOverrides(c *gin.Context) {
	record, err := h.clubMembership(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.overrides.List(requestContext(c), record.ID)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, views)
}

// PUT /api/clubs/:clubID/memberships/:membershipID/overrides/:permission
func (h *PermissionHandler) SetOverride(c *gin.Context) {
	var body setOverrideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.NewBadRequest("invalid request body"))
		return
	}

	record, err := h.clubMembership(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.overrides.Set(requestContext(c), record.ID, services.SetOverrideInput{
		Permission: c.Param("permission"),
		Allowed:    body.Allowed,
		Reason:     body.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// DELETE /api/clubs/:clubID/memberships/:membershipID/overrides/:permission
func (h *PermissionHandler) ClearOverride(c *gin.Context) {
	record, err := h.clubMembership(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.overrides.Clear(requestContext(c), record.ID, c.Param("permission")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cleared": true})
}

func (h *PermissionHandler) writeEffective(c *gin.Context, membership permissions.Membership) {
	set, err := h.checker.EffectivePermissions(requestContext(c), membership)
	if err != nil {
		response.Error(c, errors.ErrPermissionCheckFailed.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, effectivePermissions{
		MembershipID: membership.ID,
		ClubID:       membership.ClubID,
		Role:         membership.Role.String(),
		Permissions:  set,
	})
}

// clubMembership loads :membershipID and hides memberships of other clubs.
func (h *PermissionHandler) clubMembership(c *gin.Context) (*models.Membership, error) {
	record, err := h.memberships.Get(requestContext(c), c.Param("membershipID"))
	if err != nil {
		return nil, err
	}
	if record.ClubID != clubParam(c) {
		return nil, services.ErrMembershipNotFound
	}
	return record, nil
}
