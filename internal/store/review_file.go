package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
)

// ReviewFileStore defines the interface for review file persistence.
//
// Status changes go through UpdateStatus, which enforces
// domain.ReviewFileStatus transitions atomically in the store so that two
// writers racing on the same file cannot move it backwards.
type ReviewFileStore interface {
	// Create saves a new review file.
	Create(ctx context.Context, rf *domain.ReviewFile) error

	// GetByID retrieves a review file by ID.
	// Returns ErrReviewFileNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewFile, error)

	// ListByDeck returns the owner's review files for a deck, newest first.
	ListByDeck(ctx context.Context, ownerID string, deckID uuid.UUID) ([]*domain.ReviewFile, error)

	// UpdateStatus moves the file to status and records message.
	// Returns domain.ErrInvalidStatusTransition if the current status does not
	// allow the move, and ErrReviewFileNotFound if the file does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewFileStatus, message string) error

	// SetTimingMarksPath records the object key of the timing marks output.
	SetTimingMarksPath(ctx context.Context, id uuid.UUID, path string) error

	// SetAudioPath records the object key of the audio output.
	SetAudioPath(ctx context.Context, id uuid.UUID, path string) error

	// MarkReady records the audio path and sets the status to ready in one
	// write. It is idempotent for files already ready.
	MarkReady(ctx context.Context, id uuid.UUID, audioPath, message string) error

	// MarkListened sets the listened flag and timestamp.
	MarkListened(ctx context.Context, id uuid.UUID, at time.Time) error

	// WithTx returns a new ReviewFileStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewFileStore
}
