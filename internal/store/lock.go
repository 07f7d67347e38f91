package store

import (
	"context"
	"time"
)

// LockStore persists per-key mutual exclusion records with an expiry.
type LockStore interface {
	// TryAcquire inserts a lock record for key unless a live (unexpired)
	// record already exists. It returns false, without error, when the lock
	// is held by someone else.
	TryAcquire(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error)

	// Release deletes the lock record for key unconditionally.
	Release(ctx context.Context, key string) error

	// PurgeExpired deletes records whose expiry is at or before now and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
