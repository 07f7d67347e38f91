package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/store"
)

var _ store.CardStore = (*MockCardStore)(nil)

// MockCardStore implements store.CardStore for testing
type MockCardStore struct {
	CreateFn         func(ctx context.Context, card *domain.Card) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByIDsFn       func(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error)
	ListReviewableFn func(ctx context.Context, deckID uuid.UUID, today time.Time) ([]*domain.Card, error)
	MarkIncludedFn   func(ctx context.Context, ids []uuid.UUID, day time.Time) error
	UpdateScheduleFn func(ctx context.Context, card *domain.Card) error

	// WithTxFn defaults to returning the mock itself
	WithTxFn func(tx *sql.Tx) store.CardStore

	// Default return values
	Cards        []*domain.Card
	DefaultError error
}

// Create implements store.CardStore
func (m *MockCardStore) Create(ctx context.Context, card *domain.Card) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, card)
	}
	return m.DefaultError
}

// GetByID implements store.CardStore
func (m *MockCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	for _, c := range m.Cards {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, store.ErrCardNotFound
}

// GetByIDs implements store.CardStore
func (m *MockCardStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error) {
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ctx, ids)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	var out []*domain.Card
	for _, id := range ids {
		for _, c := range m.Cards {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// ListReviewable implements store.CardStore
func (m *MockCardStore) ListReviewable(ctx context.Context, deckID uuid.UUID, today time.Time) ([]*domain.Card, error) {
	if m.ListReviewableFn != nil {
		return m.ListReviewableFn(ctx, deckID, today)
	}
	return m.Cards, m.DefaultError
}

// MarkIncluded implements store.CardStore
func (m *MockCardStore) MarkIncluded(ctx context.Context, ids []uuid.UUID, day time.Time) error {
	if m.MarkIncludedFn != nil {
		return m.MarkIncludedFn(ctx, ids, day)
	}
	return m.DefaultError
}

// UpdateSchedule implements store.CardStore
func (m *MockCardStore) UpdateSchedule(ctx context.Context, card *domain.Card) error {
	if m.UpdateScheduleFn != nil {
		return m.UpdateScheduleFn(ctx, card)
	}
	return m.DefaultError
}

// WithTx implements store.CardStore
func (m *MockCardStore) WithTx(tx *sql.Tx) store.CardStore {
	if m.WithTxFn != nil {
		return m.WithTxFn(tx)
	}
	return m
}
