package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/store"
)

// PostgresLockStore implements store.LockStore on the deck_locks table.
// Times are stored as epoch seconds.
type PostgresLockStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLockStore creates a new PostgreSQL implementation of the LockStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLockStore(db store.DBTX, logger *slog.Logger) *PostgresLockStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLockStore{
		db:     db,
		logger: logger.With(slog.String("component", "lock_store")),
	}
}

// Ensure PostgresLockStore implements store.LockStore interface
var _ store.LockStore = (*PostgresLockStore)(nil)

// TryAcquire implements store.LockStore.TryAcquire
// An existing row only blocks acquisition while it has not expired.
func (s *PostgresLockStore) TryAcquire(
	ctx context.Context,
	key string,
	now time.Time,
	ttl time.Duration,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	acquiredAt := now.Unix()
	expiresAt := now.Add(ttl).Unix()

	query := `
		INSERT INTO deck_locks (deck_id, acquired_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (deck_id) DO UPDATE
		SET acquired_at = EXCLUDED.acquired_at, expires_at = EXCLUDED.expires_at
		WHERE deck_locks.expires_at <= EXCLUDED.acquired_at
	`
	result, err := s.db.ExecContext(ctx, query, key, acquiredAt, expiresAt)
	if err != nil {
		log.Error("failed to acquire lock",
			slog.String("error", err.Error()),
			slog.String("lock_key", key))
		return false, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		log.Debug("lock already held", slog.String("lock_key", key))
		return false, nil
	}

	log.Debug("lock acquired",
		slog.String("lock_key", key),
		slog.Int64("expires_at", expiresAt))
	return true, nil
}

// Release implements store.LockStore.Release
func (s *PostgresLockStore) Release(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM deck_locks WHERE deck_id = $1`, key); err != nil {
		return MapError(err)
	}
	return nil
}

// PurgeExpired implements store.LockStore.PurgeExpired
func (s *PostgresLockStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM deck_locks WHERE expires_at <= $1`, now.Unix())
	if err != nil {
		return 0, MapError(err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if purged > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Debug("purged expired locks",
			slog.Int64("count", purged))
	}
	return purged, nil
}
