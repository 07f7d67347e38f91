package review_generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/store"
)

// CardSelector finds the cards of a deck that are due and not yet
// included in a review file today.
type CardSelector struct {
	cards store.CardStore
	now   Clock
}

// NewCardSelector creates a CardSelector. A nil clock uses time.Now.
func NewCardSelector(cards store.CardStore, now Clock) *CardSelector {
	if now == nil {
		now = defaultClock
	}
	return &CardSelector{cards: cards, now: now}
}

// Select returns the reviewable cards of deckID ordered by due date then id.
func (s *CardSelector) Select(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	cards, err := s.cards.ListReviewable(ctx, deckID, domain.DateOf(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to select reviewable cards: %w", err)
	}
	return cards, nil
}
