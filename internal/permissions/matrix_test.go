package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatrixIsValid(t *testing.T) {
	require.NoError(t, DefaultMatrix().Validate())
}

func TestDefaultMatrixCoversCatalog(t *testing.T) {
	declared := map[Permission]bool{}
	for _, grant := range DefaultMatrix() {
		declared[grant.Permission] = true
	}
	for _, def := range All() {
		require.True(t, declared[def.ID], "%s missing from default matrix", def.ID)
	}
}

func TestDefaultMatrixRoleInheritance(t *testing.T) {
	m := DefaultMatrix()

	master := NewSet(m.PermissionsFor(RoleMaster)...)
	manager := NewSet(m.PermissionsFor(RoleManager)...)
	normal := NewSet(m.PermissionsFor(RoleNormal)...)
	pending := NewSet(m.PermissionsFor(RolePending)...)

	for p := range normal {
		require.True(t, manager.Has(p), "manager should inherit %s", p)
	}
	for p := range manager {
		require.True(t, master.Has(p), "master should inherit %s", p)
	}

	require.Equal(t, []Permission{JoinCancel}, pending.Sorted())
	require.False(t, normal.Has(JoinCancel))
	require.False(t, master.Has(JoinCancel))

	require.True(t, master.Has(PermissionManage))
	require.False(t, manager.Has(PermissionManage))
	require.True(t, manager.Has(PermissionView))
	require.False(t, normal.Has(PermissionView))
}

func TestMatrixValidateRejectsBadGrants(t *testing.T) {
	cases := []struct {
		name   string
		matrix Matrix
		target error
	}{
		{"unknown permission", Matrix{{Permission: "CLUB_FLY", Roles: AtLeast(RoleNormal)}}, ErrUnknownPermission},
		{"unknown role", Matrix{{Permission: ClubView, Roles: []Role{"GUEST"}}}, ErrUnknownRole},
		{"no roles", Matrix{{Permission: ClubView}}, ErrInvalidMatrix},
		{"duplicate", Matrix{
			{Permission: ClubView, Roles: AtLeast(RoleNormal)},
			{Permission: ClubView, Roles: AtLeast(RoleMaster)},
		}, ErrInvalidMatrix},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.matrix.Validate()
			require.ErrorIs(t, err, tc.target)
			require.ErrorIs(t, err, ErrInvalidMatrix)
		})
	}
}

func TestExpandEmitsOneRowPerRole(t *testing.T) {
	m := Matrix{
		{Permission: MatchCreate, Roles: AtLeast(RoleManager)},
		{Permission: JoinCancel, Roles: Only(RolePending)},
		{Permission: ClubView, Roles: []Role{RoleNormal, RoleNormal}},
	}

	require.Equal(t, []TemplateEntry{
		{Role: RoleManager, Permission: MatchCreate, Allowed: true},
		{Role: RoleMaster, Permission: MatchCreate, Allowed: true},
		{Role: RolePending, Permission: JoinCancel, Allowed: true},
		{Role: RoleNormal, Permission: ClubView, Allowed: true},
	}, m.Expand())
}

func TestDefaultMatrixExpandSize(t *testing.T) {
	require.Len(t, DefaultMatrix().Expand(), 40)
}
