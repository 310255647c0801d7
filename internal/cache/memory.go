package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMemoryEntries = 4096
	defaultMemoryTTL     = 5 * time.Minute
)

// MemoryStore is a bounded in-process LRU with a single store-wide TTL. The
// per-call ttl passed to Set is ignored.
type MemoryStore struct {
	entries *lru.LRU[string, []byte]
}

// NewMemoryStore constructs a MemoryStore holding at most size entries for ttl.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &MemoryStore{entries: lru.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached value.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.entries.Add(key, append([]byte(nil), value...))
	return nil
}

// Delete removes keys; missing keys are ignored.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.entries.Remove(key)
	}
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
