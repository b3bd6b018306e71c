package cache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a concurrency-safe in-memory Store with per-entry expiry.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key, value: payload with its expiry
	data map[string]memoryEntry

	clock      clock.Clock
	maxEntries int // max number of entries (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore.
// If maxEntries is <= 0, it is treated as unlimited. A nil clock uses the
// wall clock.
func NewMemoryStore(maxEntries int, clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryStore{
		data:       make(map[string]memoryEntry),
		clock:      clk,
		maxEntries: maxEntries,
	}
}

// Get returns the payload stored under key if it has not expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok || !s.clock.Now().Before(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl and enforces the entry limit.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = memoryEntry{
		value:     value,
		expiresAt: now.Add(ttl),
	}

	// Enforce retention by count: drop expired entries first, then the ones
	// closest to expiry.
	if s.maxEntries > 0 && len(s.data) > s.maxEntries {
		s.purgeLocked(now)
		for len(s.data) > s.maxEntries {
			s.evictSoonestLocked(key)
		}
	}
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// PurgeExpired drops every expired entry and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.purgeLocked(now)
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

func (s *MemoryStore) purgeLocked(now time.Time) int {
	removed := 0
	for key, entry := range s.data {
		if !now.Before(entry.expiresAt) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// evictSoonestLocked removes the entry closest to expiry, never keep.
func (s *MemoryStore) evictSoonestLocked(keep string) {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, entry := range s.data {
		if key == keep {
			continue
		}
		if !found || entry.expiresAt.Before(oldest) {
			victim = key
			oldest = entry.expiresAt
			found = true
		}
	}
	if !found {
		return
	}
	delete(s.data, victim)
}
