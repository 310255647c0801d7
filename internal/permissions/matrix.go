package permissions

import "fmt"

// Grant declares which roles receive a permission by default.
type Grant struct {
	Permission Permission
	Roles      []Role
}

// Matrix is the declarative permission table expanded into template rows.
type Matrix []Grant

// TemplateEntry is the default grant of a permission to every membership
// holding Role. (Role, Permission) is unique.
type TemplateEntry struct {
	Role       Role
	Permission Permission
	Allowed    bool
}

// DefaultMatrix returns the versioned matrix seeded into the template store.
func DefaultMatrix() Matrix {
	return Matrix{
		{Permission: ClubView, Roles: AtLeast(RoleNormal)},
		{Permission: ClubManage, Roles: AtLeast(RoleMaster)},
		{Permission: ClubDelete, Roles: AtLeast(RoleMaster)},

		// Withdrawing a join request only makes sense while the request is open.
		{Permission: JoinCancel, Roles: Only(RolePending)},
		{Permission: MemberView, Roles: AtLeast(RoleNormal)},
		{Permission: MemberApprove, Roles: AtLeast(RoleManager)},
		{Permission: MemberManage, Roles: AtLeast(RoleMaster)},
		{Permission: MemberKick, Roles: AtLeast(RoleManager)},

		{Permission: MatchView, Roles: AtLeast(RoleNormal)},
		{Permission: MatchCreate, Roles: AtLeast(RoleManager)},
		{Permission: MatchManage, Roles: AtLeast(RoleManager)},
		{Permission: MatchRecord, Roles: AtLeast(RoleManager)},

		{Permission: AttendanceVote, Roles: AtLeast(RoleNormal)},
		{Permission: AttendanceManage, Roles: AtLeast(RoleManager)},

		{Permission: PostView, Roles: AtLeast(RoleNormal)},
		{Permission: PostCreate, Roles: AtLeast(RoleNormal)},
		{Permission: PostManage, Roles: AtLeast(RoleManager)},
		{Permission: BoardManager, Roles: AtLeast(RoleMaster)},

		{Permission: PermissionView, Roles: AtLeast(RoleManager)},
		{Permission: PermissionManage, Roles: AtLeast(RoleMaster)},
	}
}

// Validate checks every grant references catalogued permissions and known
// roles, and that no permission is declared twice.
func (m Matrix) Validate() error {
	seen := make(map[Permission]struct{}, len(m))
	for i, grant := range m {
		if !grant.Permission.Valid() {
			return fmt.Errorf("%w: row %d: %w %q", ErrInvalidMatrix, i, ErrUnknownPermission, grant.Permission)
		}
		if _, dup := seen[grant.Permission]; dup {
			return fmt.Errorf("%w: %s declared more than once", ErrInvalidMatrix, grant.Permission)
		}
		seen[grant.Permission] = struct{}{}

		if len(grant.Roles) == 0 {
			return fmt.Errorf("%w: %s has no roles", ErrInvalidMatrix, grant.Permission)
		}
		for _, role := range grant.Roles {
			if !role.Valid() {
				return fmt.Errorf("%w: %s: %w %q", ErrInvalidMatrix, grant.Permission, ErrUnknownRole, role)
			}
		}
	}
	return nil
}

// Expand materialises one allowed template row per (role, permission) pair,
// in matrix order.
func (m Matrix) Expand() []TemplateEntry {
	var entries []TemplateEntry
	for _, grant := range m {
		seen := make(map[Role]struct{}, len(grant.Roles))
		for _, role := range grant.Roles {
			if _, dup := seen[role]; dup {
				continue
			}
			seen[role] = struct{}{}
			entries = append(entries, TemplateEntry{Role: role, Permission: grant.Permission, Allowed: true})
		}
	}
	return entries
}

// PermissionsFor returns the permissions the matrix grants role.
func (m Matrix) PermissionsFor(role Role) []Permission {
	var out []Permission
	for _, grant := range m {
		for _, r := range grant.Roles {
			if r == role {
				out = append(out, grant.Permission)
				break
			}
		}
	}
	return out
}
