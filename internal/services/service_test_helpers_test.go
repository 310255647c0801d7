package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/database/testutil"
	"github.com/charlesng35/clubhouse/internal/models"
)

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, membershipID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, membershipID)
	return r.err
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithSeedData())
}

func seedMembership(t *testing.T, db *gorm.DB, clubID, userID, role string) *models.Membership {
	t.Helper()
	m := &models.Membership{ClubID: clubID, UserID: userID, Role: role}
	require.NoError(t, db.Create(m).Error)
	return m
}

func boolPtr(v bool) *bool {
	return &v
}
