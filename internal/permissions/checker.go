package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/charlesng35/clubhouse/pkg/metrics"
)

// Checker answers permission questions for memberships. It never fails open:
// every error is returned together with a false decision.
type Checker struct {
	resolver SetResolver
}

// NewChecker constructs a permission checker backed by resolver.
func NewChecker(resolver SetResolver) (*Checker, error) {
	if resolver == nil {
		return nil, errors.New("permission checker: resolver is required")
	}
	return &Checker{resolver: resolver}, nil
}

// Check determines whether m holds perm.
func (c *Checker) Check(ctx context.Context, m Membership, perm Permission) (bool, error) {
	if !perm.Valid() {
		return false, fmt.Errorf("%w %q", ErrUnknownPermission, perm)
	}

	set, err := c.resolver.Resolve(ctx, m)
	if err != nil {
		metrics.PermissionChecks.WithLabelValues(perm.String(), "error").Inc()
		return false, err
	}

	ok := set.Has(perm)
	metrics.PermissionChecks.WithLabelValues(perm.String(), decision(ok)).Inc()
	return ok, nil
}

// CheckAny reports whether m holds at least one of perms. An empty list
// grants nothing.
func (c *Checker) CheckAny(ctx context.Context, m Membership, perms ...Permission) (bool, error) {
	if len(perms) == 0 {
		return false, nil
	}
	set, err := c.resolveFor(ctx, m, perms)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if set.Has(p) {
			return true, nil
		}
	}
	return false, nil
}

// CheckAll reports whether m holds every one of perms.
func (c *Checker) CheckAll(ctx context.Context, m Membership, perms ...Permission) (bool, error) {
	if len(perms) == 0 {
		return true, nil
	}
	set, err := c.resolveFor(ctx, m, perms)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if !set.Has(p) {
			return false, nil
		}
	}
	return true, nil
}

// EffectivePermissions exposes the full resolved set, e.g. for UI gating.
func (c *Checker) EffectivePermissions(ctx context.Context, m Membership) (Set, error) {
	return c.resolver.Resolve(ctx, m)
}

func (c *Checker) resolveFor(ctx context.Context, m Membership, perms []Permission) (Set, error) {
	for _, p := range perms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w %q", ErrUnknownPermission, p)
		}
	}
	set, err := c.resolver.Resolve(ctx, m)
	if err != nil {
		for _, p := range perms {
			metrics.PermissionChecks.WithLabelValues(p.String(), "error").Inc()
		}
		return nil, err
	}
	for _, p := range perms {
		metrics.PermissionChecks.WithLabelValues(p.String(), decision(set.Has(p))).Inc()
	}
	return set, nil
}

func decision(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
