package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/store"
)

const reviewFileColumns = `id, owner_id, deck_id, card_ids, card_count, status, status_message,
	audio_path, timing_marks_path, is_listened, last_listened_at, created_at, updated_at`

var allReviewFileStatuses = []domain.ReviewFileStatus{
	domain.ReviewFileStatusPending,
	domain.ReviewFileStatusProcessing,
	domain.ReviewFileStatusReady,
	domain.ReviewFileStatusError,
}

// PostgresReviewFileStore implements the store.ReviewFileStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewFileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewFileStore creates a new PostgreSQL implementation of the ReviewFileStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewFileStore(db store.DBTX, logger *slog.Logger) *PostgresReviewFileStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewFileStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_file_store")),
	}
}

// Ensure PostgresReviewFileStore implements store.ReviewFileStore interface
var _ store.ReviewFileStore = (*PostgresReviewFileStore)(nil)

// Create implements store.ReviewFileStore.Create
func (s *PostgresReviewFileStore) Create(ctx context.Context, rf *domain.ReviewFile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rf.Validate(); err != nil {
		log.Warn("review file validation failed during create",
			slog.String("error", err.Error()),
			slog.String("review_file_id", rf.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	cardIDs, err := json.Marshal(rf.CardIDs)
	if err != nil {
		return fmt.Errorf("failed to encode card ids: %w", err)
	}

	query := `
		INSERT INTO review_files (` + reviewFileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		rf.ID,
		rf.OwnerID,
		rf.DeckID,
		cardIDs,
		rf.CardCount,
		string(rf.Status),
		rf.StatusMessage,
		nullString(rf.AudioPath),
		nullString(rf.TimingMarksPath),
		rf.IsListened,
		rf.LastListenedAt,
		rf.CreatedAt,
		rf.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create review file",
			slog.String("error", err.Error()),
			slog.String("review_file_id", rf.ID.String()))
		return MapError(err)
	}

	log.Debug("review file created",
		slog.String("review_file_id", rf.ID.String()),
		slog.Int("card_count", rf.CardCount))
	return nil
}

// GetByID implements store.ReviewFileStore.GetByID
// Returns store.ErrReviewFileNotFound if the review file does not exist.
func (s *PostgresReviewFileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewFile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + reviewFileColumns + ` FROM review_files WHERE id = $1`

	rf, err := scanReviewFile(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review file not found", slog.String("review_file_id", id.String()))
			return nil, store.ErrReviewFileNotFound
		}
		log.Error("failed to get review file by ID",
			slog.String("error", err.Error()),
			slog.String("review_file_id", id.String()))
		return nil, MapError(err)
	}

	return rf, nil
}

// ListByDeck implements store.ReviewFileStore.ListByDeck
func (s *PostgresReviewFileStore) ListByDeck(
	ctx context.Context,
	ownerID string,
	deckID uuid.UUID,
) ([]*domain.ReviewFile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewFileColumns + `
		FROM review_files
		WHERE owner_id = $1 AND deck_id = $2
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID, deckID)
	if err != nil {
		log.Error("failed to list review files",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var files []*domain.ReviewFile
	for rows.Next() {
		rf, err := scanReviewFile(rows)
		if err != nil {
			log.Error("failed to scan review file row", slog.String("error", err.Error()))
			return nil, err
		}
		files = append(files, rf)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return files, nil
}

// UpdateStatus implements store.ReviewFileStore.UpdateStatus
// The transition check and the write are one statement, so concurrent
// writers cannot move a file out of a terminal status.
func (s *PostgresReviewFileStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.ReviewFileStatus,
	message string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidReviewFileStatus, status)
	}

	from, err := json.Marshal(statusesReaching(status))
	if err != nil {
		return fmt.Errorf("failed to encode statuses: %w", err)
	}

	query := `
		UPDATE review_files
		SET status = $1, status_message = $2, updated_at = $3
		WHERE id = $4
		  AND status IN (SELECT jsonb_array_elements_text($5::jsonb))
	`
	result, err := s.db.ExecContext(ctx, query, string(status), message, time.Now().UTC(), id, from)
	if err != nil {
		log.Error("failed to update review file status",
			slog.String("error", err.Error()),
			slog.String("review_file_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := s.checkTransition(ctx, result, id, status); err != nil {
		return err
	}

	log.Debug("review file status updated",
		slog.String("review_file_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// SetTimingMarksPath implements store.ReviewFileStore.SetTimingMarksPath
func (s *PostgresReviewFileStore) SetTimingMarksPath(ctx context.Context, id uuid.UUID, path string) error {
	return s.setPath(ctx, id, "timing_marks_path", path)
}

// SetAudioPath implements store.ReviewFileStore.SetAudioPath
func (s *PostgresReviewFileStore) SetAudioPath(ctx context.Context, id uuid.UUID, path string) error {
	return s.setPath(ctx, id, "audio_path", path)
}

// MarkReady implements store.ReviewFileStore.MarkReady
func (s *PostgresReviewFileStore) MarkReady(
	ctx context.Context,
	id uuid.UUID,
	audioPath, message string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE review_files
		SET status = $1, status_message = $2, audio_path = $3, updated_at = $4
		WHERE id = $5 AND status IN ($6, $1)
	`
	result, err := s.db.ExecContext(ctx, query,
		string(domain.ReviewFileStatusReady),
		message,
		audioPath,
		time.Now().UTC(),
		id,
		string(domain.ReviewFileStatusProcessing),
	)
	if err != nil {
		log.Error("failed to mark review file ready",
			slog.String("error", err.Error()),
			slog.String("review_file_id", id.String()))
		return MapError(err)
	}

	if err := s.checkTransition(ctx, result, id, domain.ReviewFileStatusReady); err != nil {
		return err
	}

	log.Info("review file ready",
		slog.String("review_file_id", id.String()),
		slog.String("audio_path", audioPath))
	return nil
}

// MarkListened implements store.ReviewFileStore.MarkListened
func (s *PostgresReviewFileStore) MarkListened(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE review_files
		SET is_listened = TRUE, last_listened_at = $1, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		log.Error("failed to mark review file listened",
			slog.String("error", err.Error()),
			slog.String("review_file_id", id.String()))
		return MapError(err)
	}

	if err := requireRow(result, store.ErrReviewFileNotFound); err != nil {
		return err
	}

	return nil
}

// WithTx implements store.ReviewFileStore.WithTx
func (s *PostgresReviewFileStore) WithTx(tx *sql.Tx) store.ReviewFileStore {
	return &PostgresReviewFileStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresReviewFileStore) setPath(ctx context.Context, id uuid.UUID, column, path string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// column is one of two fixed names chosen by the callers above.
	query := fmt.Sprintf(`UPDATE review_files SET %s = $1, updated_at = $2 WHERE id = $3`, column)

	result, err := s.db.ExecContext(ctx, query, path, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set review file path",
			slog.String("error", err.Error()),
			slog.String("review_file_id", id.String()),
			slog.String("column", column))
		return MapError(err)
	}

	if err := requireRow(result, store.ErrReviewFileNotFound); err != nil {
		return err
	}

	return nil
}

// checkTransition explains a conditional status update that touched no
// rows: either the file is missing or its current status forbids the move.
func (s *PostgresReviewFileStore) checkTransition(
	ctx context.Context,
	result sql.Result,
	id uuid.UUID,
	next domain.ReviewFileStatus,
) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM review_files WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrReviewFileNotFound
		}
		return MapError(err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Warn("rejected review file status transition",
		slog.String("review_file_id", id.String()),
		slog.String("from", current),
		slog.String("to", string(next)))

	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current, next)
}

// statusesReaching lists every status from which next may be written.
func statusesReaching(next domain.ReviewFileStatus) []string {
	var from []string
	for _, s := range allReviewFileStatuses {
		if s.CanTransitionTo(next) {
			from = append(from, string(s))
		}
	}
	return from
}

func scanReviewFile(row rowScanner) (*domain.ReviewFile, error) {
	var rf domain.ReviewFile
	var cardIDs []byte
	var status string
	var audioPath, marksPath sql.NullString
	var listenedAt sql.NullTime

	if err := row.Scan(
		&rf.ID,
		&rf.OwnerID,
		&rf.DeckID,
		&cardIDs,
		&rf.CardCount,
		&status,
		&rf.StatusMessage,
		&audioPath,
		&marksPath,
		&rf.IsListened,
		&listenedAt,
		&rf.CreatedAt,
		&rf.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cardIDs, &rf.CardIDs); err != nil {
		return nil, fmt.Errorf("failed to decode card ids: %w", err)
	}

	rf.Status = domain.ReviewFileStatus(status)
	rf.AudioPath = audioPath.String
	rf.TimingMarksPath = marksPath.String
	if listenedAt.Valid {
		t := listenedAt.Time
		rf.LastListenedAt = &t
	}

	return &rf, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
