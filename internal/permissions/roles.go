package permissions

import (
	"fmt"
	"strings"
)

// Role is a membership tier within a club. Roles are totally ordered from the
// least to the most privileged.
type Role string

const (
	RolePending Role = "PENDING"
	RoleNormal  Role = "NORMAL"
	RoleManager Role = "MANAGER"
	RoleMaster  Role = "MASTER"
)

// hierarchy lists every role in ascending privilege order.
var hierarchy = [...]Role{RolePending, RoleNormal, RoleManager, RoleMaster}

// Hierarchy returns the ordered role list, lowest privilege first.
func Hierarchy() []Role {
	out := make([]Role, len(hierarchy))
	copy(out, hierarchy[:])
	return out
}

// ParseRole converts user or storage input into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, value)
	}
	return role, nil
}

// Rank returns the role's position in the hierarchy, or -1 when unknown.
func (r Role) Rank() int {
	for i, candidate := range hierarchy {
		if candidate == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// AtLeast reports whether r is at least as privileged as other.
func (r Role) AtLeast(other Role) bool {
	rank := r.Rank()
	return rank >= 0 && other.Valid() && rank >= other.Rank()
}

func (r Role) String() string {
	return string(r)
}

// AtLeast returns every role ranked at or above role, in ascending order.
// It panics on an unknown role since matrices are declared in code.
func AtLeast(role Role) []Role {
	rank := role.Rank()
	if rank < 0 {
		panic(fmt.Sprintf("permissions: AtLeast called with unknown role %q", role))
	}
	out := make([]Role, 0, len(hierarchy)-rank)
	out = append(out, hierarchy[rank:]...)
	return out
}

// Only returns a role set holding exactly role. Grants built with Only are not
// inherited by higher roles.
func Only(role Role) []Role {
	if !role.Valid() {
		panic(fmt.Sprintf("permissions: Only called with unknown role %q", role))
	}
	return []Role{role}
}

// CanAssign reports whether an actor holding actor may move a member from
// current to next. MASTER may make any change. Other actors may only act on
// members ranked below them and may only assign roles ranked below their own.
func CanAssign(actor, current, next Role) bool {
	if !actor.Valid() || !current.Valid() || !next.Valid() {
		return false
	}
	if actor == RoleMaster {
		return true
	}
	return current.Rank() < actor.Rank() && next.Rank() < actor.Rank()
}
