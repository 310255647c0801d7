package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/clubhouse/pkg/logger"
	"github.com/charlesng35/clubhouse/pkg/metrics"
)

// Membership identifies a user's standing within a club. The resolver reads
// only ID and Role.
type Membership struct {
	ID     string `json:"id"`
	ClubID string `json:"club_id,omitempty"`
	Role   Role   `json:"role"`
}

// Validate rejects memberships that cannot be resolved.
func (m Membership) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidMembership)
	}
	if !m.Role.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownRole, m.Role)
	}
	return nil
}

// SetResolver computes effective permission sets.
type SetResolver interface {
	Resolve(ctx context.Context, m Membership) (Set, error)
}

// Resolver merges the role template with member overrides.
type Resolver struct {
	templates TemplateStore
	overrides OverrideStore
	log       *zap.Logger
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for data integrity warnings.
func WithLogger(log *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver constructs a resolver over the supplied stores.
func NewResolver(templates TemplateStore, overrides OverrideStore, opts ...ResolverOption) (*Resolver, error) {
	if templates == nil {
		return nil, errors.New("permission resolver: template store is required")
	}
	if overrides == nil {
		return nil, errors.New("permission resolver: override store is required")
	}
	r := &Resolver{
		templates: templates,
		overrides: overrides,
		log:       logger.WithModule("permissions"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the effective permission set for m. Template and override
// reads run concurrently; both must succeed before merging.
func (r *Resolver) Resolve(ctx context.Context, m Membership) (Set, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)

	start := time.Now()
	var (
		templatePerms []Permission
		overrides     []Override
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		perms, err := r.templates.FindTemplatePermissions(gctx, m.Role)
		if err != nil {
			return fmt.Errorf("%w: template lookup for %s: %w", ErrStoreUnavailable, m.Role, err)
		}
		templatePerms = perms
		return nil
	})
	g.Go(func() error {
		rows, err := r.overrides.FindOverrides(gctx, m.ID)
		if err != nil {
			return fmt.Errorf("%w: override lookup for %s: %w", ErrStoreUnavailable, m.ID, err)
		}
		overrides = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.PermissionResolutions.WithLabelValues("error").Inc()
		return nil, err
	}

	allowed := merge(templatePerms, overrides, func(p Permission) {
		r.log.Warn("duplicate permission override; last row wins",
			zap.String("membership_id", m.ID),
			zap.String("permission", p.String()),
		)
	})

	metrics.PermissionResolutions.WithLabelValues("ok").Inc()
	metrics.PermissionResolveLatency.Observe(time.Since(start).Seconds())
	return allowed, nil
}

// merge applies overrides on top of the template set. onDuplicate is invoked
// when a permission is overridden more than once.
func merge(template []Permission, overrides []Override, onDuplicate func(Permission)) Set {
	allowed := NewSet(template...)

	seen := make(map[Permission]struct{}, len(overrides))
	for _, o := range overrides {
		if _, dup := seen[o.Permission]; dup && onDuplicate != nil {
			onDuplicate(o.Permission)
		}
		seen[o.Permission] = struct{}{}

		if o.Allowed {
			allowed[o.Permission] = struct{}{}
		} else {
			delete(allowed, o.Permission)
		}
	}
	return allowed
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
