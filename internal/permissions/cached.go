package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/charlesng35/clubhouse/internal/cache"
	"github.com/charlesng35/clubhouse/pkg/logger"
	"github.com/charlesng35/clubhouse/pkg/metrics"
)

const defaultCacheTTL = 5 * time.Minute

// CachedResolver memoises resolved sets per (membership, role). Entries are
// keyed by role so a role change always misses; override edits must call
// Invalidate. Cache failures fall back to a direct resolve.
//
// Every membership has a generation token stored next to its entries and
// read before the underlying resolve starts. Invalidate rotates the token, so
// a resolve that raced an override edit writes under a key nobody reads.
type CachedResolver struct {
	next  SetResolver
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedResolver wraps next with store.
func NewCachedResolver(next SetResolver, store cache.Store, ttl time.Duration) (*CachedResolver, error) {
	if next == nil {
		return nil, errors.New("permission cache: resolver is required")
	}
	if store == nil {
		return nil, errors.New("permission cache: store is required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedResolver{
		next:  next,
		store: store,
		ttl:   ttl,
		log:   logger.WithModule("permissions"),
	}, nil
}

// Resolve returns the cached set or resolves and caches it.
func (c *CachedResolver) Resolve(ctx context.Context, m Membership) (Set, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ctx = ensureContext(ctx)

	gen, err := c.generation(ctx, m.ID)
	if err != nil {
		c.log.Warn("permission cache generation unavailable", zap.String("membership_id", m.ID), zap.Error(err))
		metrics.PermissionCacheLookups.WithLabelValues("miss").Inc()
		return c.next.Resolve(ctx, m)
	}
	key := cacheKey(m.ID, gen, m.Role)

	raw, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.log.Warn("permission cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		var set Set
		if decodeErr := json.Unmarshal(raw, &set); decodeErr == nil {
			metrics.PermissionCacheLookups.WithLabelValues("hit").Inc()
			return set, nil
		}
		c.log.Warn("discarding undecodable permission cache entry", zap.String("key", key))
	}
	metrics.PermissionCacheLookups.WithLabelValues("miss").Inc()

	set, err := c.next.Resolve(ctx, m)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(set)
	if err == nil {
		err = c.store.Set(ctx, key, encoded, c.ttl)
	}
	if err != nil {
		c.log.Warn("permission cache write failed", zap.String("key", key), zap.Error(err))
	}
	return set, nil
}

// Invalidate rotates the generation of membershipID so every cached set,
// including one being written by an in-flight resolve, stops being served.
// Entries under the previous generation are deleted on a best-effort basis.
func (c *CachedResolver) Invalidate(ctx context.Context, membershipID string) error {
	ctx = ensureContext(ctx)

	previous, ok, readErr := c.store.Get(ctx, generationKey(membershipID))
	if err := c.store.Set(ctx, generationKey(membershipID), []byte(uuid.NewString()), c.generationTTL()); err != nil {
		return fmt.Errorf("permission cache: rotate generation: %w", err)
	}
	if readErr != nil || !ok {
		return readErr
	}

	roles := Hierarchy()
	keys := make([]string, 0, len(roles))
	for _, role := range roles {
		keys = append(keys, cacheKey(membershipID, string(previous), role))
	}
	return c.store.Delete(ctx, keys...)
}

// generation returns the current token for membershipID, creating one when
// none is stored. Two readers racing to create it only cost an extra miss.
func (c *CachedResolver) generation(ctx context.Context, membershipID string) (string, error) {
	raw, ok, err := c.store.Get(ctx, generationKey(membershipID))
	if err != nil {
		return "", err
	}
	if ok && len(raw) > 0 {
		return string(raw), nil
	}
	gen := uuid.NewString()
	if err := c.store.Set(ctx, generationKey(membershipID), []byte(gen), c.generationTTL()); err != nil {
		return "", err
	}
	return gen, nil
}

// generationTTL outlives the entries written under a generation.
func (c *CachedResolver) generationTTL() time.Duration {
	return 2 * c.ttl
}

func generationKey(membershipID string) string {
	return "perm:" + membershipID + ":gen"
}

func cacheKey(membershipID, gen string, role Role) string {
	return "perm:" + membershipID + ":" + gen + ":" + role.String()
}
