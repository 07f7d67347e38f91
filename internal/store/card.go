package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
)

// CardStore defines the interface for card data persistence.
// Card creation and editing happen outside this service; the store only
// exposes what review generation and feedback need.
type CardStore interface {
	// Create saves a new card. Used by seeding and tests.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetByIDs retrieves the cards with the given IDs. Missing IDs are
	// silently skipped; callers compare lengths when they need all of them.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error)

	// ListReviewable returns the deck's cards that are due before tomorrow
	// and were not already included in a review on today, ordered by due
	// date then ID.
	ListReviewable(ctx context.Context, deckID uuid.UUID, today time.Time) ([]*domain.Card, error)

	// MarkIncluded sets the review inclusion date of the given cards.
	MarkIncluded(ctx context.Context, ids []uuid.UUID, day time.Time) error

	// UpdateSchedule persists a card's interval, ease factor and due date.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateSchedule(ctx context.Context, card *domain.Card) error

	// WithTx returns a new CardStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}
