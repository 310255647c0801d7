package permissions

import "errors"

var (
	// ErrUnknownRole indicates a role outside the closed hierarchy.
	ErrUnknownRole = errors.New("permission: unknown role")
	// ErrUnknownPermission indicates a permission key outside the catalogue.
	ErrUnknownPermission = errors.New("permission: unknown permission")
	// ErrInvalidMembership is returned when a membership cannot be resolved at all.
	ErrInvalidMembership = errors.New("permission: invalid membership")
	// ErrInvalidMatrix reports a malformed permission matrix.
	ErrInvalidMatrix = errors.New("permission: invalid matrix")
	// ErrStoreUnavailable wraps template or override read failures.
	ErrStoreUnavailable = errors.New("permission: store unavailable")
)
