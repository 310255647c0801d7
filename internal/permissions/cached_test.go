package permissions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/clubhouse/internal/cache"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache offline")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache offline")
}

func (brokenStore) Delete(context.Context, ...string) error {
	return errors.New("cache offline")
}

func TestCachedResolverServesHits(t *testing.T) {
	next := &countingResolver{set: NewSet(ClubView, PostView)}
	cached, err := NewCachedResolver(next, cache.NewMemoryStore(16, time.Minute), time.Minute)
	require.NoError(t, err)
	m := Membership{ID: "m-1", Role: RoleNormal}

	first, err := cached.Resolve(context.Background(), m)
	require.NoError(t, err)
	second, err := cached.Resolve(context.Background(), m)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int32(1), next.calls.Load())
}

func TestCachedResolverKeysByRole(t *testing.T) {
	next := &countingResolver{set: NewSet(ClubView)}
	cached, err := NewCachedResolver(next, cache.NewMemoryStore(16, time.Minute), time.Minute)
	require.NoError(t, err)

	_, err = cached.Resolve(context.Background(), Membership{ID: "m-1", Role: RoleNormal})
	require.NoError(t, err)
	_, err = cached.Resolve(context.Background(), Membership{ID: "m-1", Role: RoleManager})
	require.NoError(t, err)

	require.Equal(t, int32(2), next.calls.Load())
}

func TestCachedResolverInvalidateDropsEveryRole(t *testing.T) {
	next := &countingResolver{set: NewSet(ClubView)}
	store := cache.NewMemoryStore(16, time.Minute)
	cached, err := NewCachedResolver(next, store, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	for _, role := range []Role{RoleNormal, RoleManager} {
		_, err = cached.Resolve(ctx, Membership{ID: "m-1", Role: role})
		require.NoError(t, err)
	}
	_, err = cached.Resolve(ctx, Membership{ID: "m-2", Role: RoleNormal})
	require.NoError(t, err)
	// Two generation tokens plus three sets.
	require.Equal(t, 5, store.Len())

	require.NoError(t, cached.Invalidate(ctx, "m-1"))
	require.Equal(t, 3, store.Len())

	_, err = cached.Resolve(ctx, Membership{ID: "m-1", Role: RoleNormal})
	require.NoError(t, err)
	require.Equal(t, int32(4), next.calls.Load())

	_, err = cached.Resolve(ctx, Membership{ID: "m-2", Role: RoleNormal})
	require.NoError(t, err)
	require.Equal(t, int32(4), next.calls.Load())
}

func TestCachedResolverFallsBackWhenCacheFails(t *testing.T) {
	next := &countingResolver{set: NewSet(ClubView)}
	cached, err := NewCachedResolver(next, brokenStore{}, 0)
	require.NoError(t, err)

	set, err := cached.Resolve(context.Background(), Membership{ID: "m-1", Role: RoleNormal})
	require.NoError(t, err)
	require.True(t, set.Has(ClubView))

	require.Error(t, cached.Invalidate(context.Background(), "m-1"))
}

func TestCachedResolverDoesNotCacheErrors(t *testing.T) {
	next := &countingResolver{err: ErrStoreUnavailable}
	store := cache.NewMemoryStore(16, time.Minute)
	cached, err := NewCachedResolver(next, store, time.Minute)
	require.NoError(t, err)

	m := Membership{ID: "m-1", Role: RoleNormal}
	_, err = cached.Resolve(context.Background(), m)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = cached.Resolve(context.Background(), m)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Equal(t, int32(2), next.calls.Load())
}

func TestCachedResolverRejectsInvalidMembership(t *testing.T) {
	next := &countingResolver{set: NewSet()}
	cached, err := NewCachedResolver(next, cache.NewMemoryStore(16, time.Minute), time.Minute)
	require.NoError(t, err)

	_, err = cached.Resolve(context.Background(), Membership{ID: "m-1", Role: "GUEST"})
	require.ErrorIs(t, err, ErrUnknownRole)
	require.Zero(t, next.calls.Load())
}

// gatedResolver snapshots its set on entry and blocks the first call until
// release is closed, standing in for a slow store read.
type gatedResolver struct {
	mu      sync.Mutex
	set     Set
	gated   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedResolver(set Set) *gatedResolver {
	return &gatedResolver{set: set, gated: true, entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedResolver) Resolve(_ context.Context, _ Membership) (Set, error) {
	r.mu.Lock()
	snapshot := r.set.Clone()
	block := r.gated
	r.gated = false
	r.mu.Unlock()

	if block {
		close(r.entered)
		<-r.release
	}
	return snapshot, nil
}

func (r *gatedResolver) replace(set Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = set
}

func TestCachedResolverInvalidateDuringResolveDropsStaleSet(t *testing.T) {
	stores := map[string]func(t *testing.T) cache.Store{
		"memory": func(*testing.T) cache.Store { return cache.NewMemoryStore(16, time.Minute) },
		"redis": func(t *testing.T) cache.Store {
			srv := miniredis.RunT(t)
			store, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{Address: srv.Addr()})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			next := newGatedResolver(NewSet(ClubView, ClubManage))
			cached, err := NewCachedResolver(next, newStore(t), time.Minute)
			require.NoError(t, err)
			ctx := context.Background()
			m := Membership{ID: "m-1", Role: RoleMaster}

			inflight := make(chan Set, 1)
			go func() {
				set, resolveErr := cached.Resolve(ctx, m)
				if resolveErr != nil {
					inflight <- nil
					return
				}
				inflight <- set
			}()

			select {
			case <-next.entered:
			case <-time.After(time.Second):
				t.Fatal("resolve never reached the underlying resolver")
			}

			// A revoke commits and invalidates while the read is outstanding.
			next.replace(NewSet(ClubView))
			require.NoError(t, cached.Invalidate(ctx, m.ID))
			close(next.release)

			stale := <-inflight
			require.NotNil(t, stale)
			require.True(t, stale.Has(ClubManage))

			fresh, err := cached.Resolve(ctx, m)
			require.NoError(t, err)
			require.False(t, fresh.Has(ClubManage))
			require.True(t, fresh.Has(ClubView))
		})
	}
}
