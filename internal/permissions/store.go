package permissions

import "context"

// Override is a member-specific grant (Allowed) or revoke (!Allowed) that is
// not attributable to any role.
type Override struct {
	Permission Permission
	Allowed    bool
}

// TemplateStore reads the role template.
type TemplateStore interface {
	// FindTemplatePermissions returns the permissions with an allowed template
	// row for role. Explicitly denied rows are never returned.
	FindTemplatePermissions(ctx context.Context, role Role) ([]Permission, error)
}

// OverrideStore reads unattributed per-member overrides.
type OverrideStore interface {
	FindOverrides(ctx context.Context, membershipID string) ([]Override, error)
}

// TemplateWriter persists template rows during seeding.
type TemplateWriter interface {
	UpsertTemplate(ctx context.Context, entry TemplateEntry) error
}
