package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/memorai/internal/store"
)

var (
	_ store.LockStore = (*MockLockStore)(nil)
	_ store.LockStore = (*MemoryLockStore)(nil)
)

// MockLockStore implements store.LockStore for testing
type MockLockStore struct {
	TryAcquireFn   func(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseFn      func(ctx context.Context, key string) error
	PurgeExpiredFn func(ctx context.Context, now time.Time) (int64, error)

	// Default return values
	Acquired     bool
	DefaultError error
}

// TryAcquire implements store.LockStore
func (m *MockLockStore) TryAcquire(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error) {
	if m.TryAcquireFn != nil {
		return m.TryAcquireFn(ctx, key, now, ttl)
	}
	return m.Acquired, m.DefaultError
}

// Release implements store.LockStore
func (m *MockLockStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(ctx, key)
	}
	return m.DefaultError
}

// PurgeExpired implements store.LockStore
func (m *MockLockStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.PurgeExpiredFn != nil {
		return m.PurgeExpiredFn(ctx, now)
	}
	return 0, m.DefaultError
}

// MemoryLockStore is a concurrency-safe in-memory store.LockStore with the
// same expiry semantics as the Postgres implementation: an entry whose
// expiry is at or before the acquisition time counts as absent.
type MemoryLockStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

// NewMemoryLockStore creates an empty MemoryLockStore.
func NewMemoryLockStore() *MemoryLockStore {
	return &MemoryLockStore{expires: make(map[string]time.Time)}
}

// TryAcquire implements store.LockStore
func (s *MemoryLockStore) TryAcquire(_ context.Context, key string, now time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.expires[key]; ok && exp.After(now) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

// Release implements store.LockStore
func (s *MemoryLockStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, key)
	return nil
}

// PurgeExpired implements store.LockStore
func (s *MemoryLockStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, exp := range s.expires {
		if !exp.After(now) {
			delete(s.expires, k)
			n++
		}
	}
	return n, nil
}

// Held reports whether key has an entry, expired or not.
func (s *MemoryLockStore) Held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.expires[key]
	return ok
}
