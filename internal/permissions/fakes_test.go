package permissions

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakeTemplates struct {
	byRole map[Role][]Permission
	err    error
	calls  atomic.Int32
}

func (f *fakeTemplates) FindTemplatePermissions(_ context.Context, role Role) ([]Permission, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return append([]Permission(nil), f.byRole[role]...), nil
}

type fakeOverrides struct {
	byMembership map[string][]Override
	err          error
	calls        atomic.Int32
}

func (f *fakeOverrides) FindOverrides(_ context.Context, membershipID string) ([]Override, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return append([]Override(nil), f.byMembership[membershipID]...), nil
}

// templatesFromMatrix builds a template store equivalent to a seeded matrix.
func templatesFromMatrix(m Matrix) *fakeTemplates {
	store := &fakeTemplates{byRole: map[Role][]Permission{}}
	for _, entry := range m.Expand() {
		store.byRole[entry.Role] = append(store.byRole[entry.Role], entry.Permission)
	}
	return store
}

type recordingWriter struct {
	mu      sync.Mutex
	entries []TemplateEntry
	failAt  int
	err     error
}

func (w *recordingWriter) UpsertTemplate(_ context.Context, entry TemplateEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil && len(w.entries) == w.failAt {
		return w.err
	}
	w.entries = append(w.entries, entry)
	return nil
}

type countingResolver struct {
	set   Set
	err   error
	calls atomic.Int32
}

func (r *countingResolver) Resolve(_ context.Context, m Membership) (Set, error) {
	r.calls.Add(1)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.set.Clone(), nil
}
