package review_generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/store"
)

// DefaultLockTimeout is how long an unreleased deck lock stays live.
const DefaultLockTimeout = 180 * time.Second

// Clock returns the current time.
type Clock func() time.Time

// DeckLock provides mutual exclusion per deck across processes.
type DeckLock struct {
	store   store.LockStore
	timeout time.Duration
	now     Clock
	logger  *slog.Logger
}

// NewDeckLock creates a DeckLock. A nil clock uses time.Now.
func NewDeckLock(locks store.LockStore, timeout time.Duration, now Clock, logger *slog.Logger) *DeckLock {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &DeckLock{
		store:   locks,
		timeout: timeout,
		now:     now,
		logger:  logger.With("component", "deck_lock"),
	}
}

// Acquire takes the lock for deckID. It returns false without error when a
// live lock is already held.
func (l *DeckLock) Acquire(ctx context.Context, deckID uuid.UUID) (bool, error) {
	ok, err := l.store.TryAcquire(ctx, deckID.String(), l.now(), l.timeout)
	if err != nil {
		return false, fmt.Errorf("failed to acquire deck lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock for deckID. Failures are logged, never returned.
func (l *DeckLock) Release(ctx context.Context, deckID uuid.UUID) {
	if err := l.store.Release(ctx, deckID.String()); err != nil {
		logger.FromContextOrDefault(ctx, l.logger).WarnContext(ctx, "failed to release deck lock",
			"deck_id", deckID,
			"error", err)
	}
}

// PurgeExpired deletes expired locks.
func (l *DeckLock) PurgeExpired(ctx context.Context) (int64, error) {
	return l.store.PurgeExpired(ctx, l.now())
}

// RunJanitor purges expired locks every interval until ctx is done.
func (l *DeckLock) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("deck lock janitor stopped")
			return
		case <-ticker.C:
			n, err := l.PurgeExpired(ctx)
			if err != nil {
				l.logger.Error("failed to purge expired deck locks", "error", err)
				continue
			}
			if n > 0 {
				l.logger.Info("purged expired deck locks", "count", n)
			}
		}
	}
}
