package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/store"
)

var _ store.ReviewFileStore = (*MockReviewFileStore)(nil)

// MockReviewFileStore implements store.ReviewFileStore for testing
type MockReviewFileStore struct {
	CreateFn             func(ctx context.Context, rf *domain.ReviewFile) error
	GetByIDFn            func(ctx context.Context, id uuid.UUID) (*domain.ReviewFile, error)
	ListByDeckFn         func(ctx context.Context, ownerID string, deckID uuid.UUID) ([]*domain.ReviewFile, error)
	UpdateStatusFn       func(ctx context.Context, id uuid.UUID, status domain.ReviewFileStatus, message string) error
	SetTimingMarksPathFn func(ctx context.Context, id uuid.UUID, path string) error
	SetAudioPathFn       func(ctx context.Context, id uuid.UUID, path string) error
	MarkReadyFn          func(ctx context.Context, id uuid.UUID, audioPath, message string) error
	MarkListenedFn       func(ctx context.Context, id uuid.UUID, at time.Time) error

	// WithTxFn defaults to returning the mock itself
	WithTxFn func(tx *sql.Tx) store.ReviewFileStore

	// Default return values
	ReviewFile   *domain.ReviewFile
	ReviewFiles  []*domain.ReviewFile
	DefaultError error
}

// Create implements store.ReviewFileStore
func (m *MockReviewFileStore) Create(ctx context.Context, rf *domain.ReviewFile) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, rf)
	}
	return m.DefaultError
}

// GetByID implements store.ReviewFileStore
func (m *MockReviewFileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewFile, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if m.ReviewFile == nil && m.DefaultError == nil {
		return nil, store.ErrReviewFileNotFound
	}
	return m.ReviewFile, m.DefaultError
}

// ListByDeck implements store.ReviewFileStore
func (m *MockReviewFileStore) ListByDeck(ctx context.Context, ownerID string, deckID uuid.UUID) ([]*domain.ReviewFile, error) {
	if m.ListByDeckFn != nil {
		return m.ListByDeckFn(ctx, ownerID, deckID)
	}
	return m.ReviewFiles, m.DefaultError
}

// UpdateStatus implements store.ReviewFileStore
func (m *MockReviewFileStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewFileStatus, message string) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status, message)
	}
	return m.DefaultError
}

// SetTimingMarksPath implements store.ReviewFileStore
func (m *MockReviewFileStore) SetTimingMarksPath(ctx context.Context, id uuid.UUID, path string) error {
	if m.SetTimingMarksPathFn != nil {
		return m.SetTimingMarksPathFn(ctx, id, path)
	}
	return m.DefaultError
}

// SetAudioPath implements store.ReviewFileStore
func (m *MockReviewFileStore) SetAudioPath(ctx context.Context, id uuid.UUID, path string) error {
	if m.SetAudioPathFn != nil {
		return m.SetAudioPathFn(ctx, id, path)
	}
	return m.DefaultError
}

// MarkReady implements store.ReviewFileStore
func (m *MockReviewFileStore) MarkReady(ctx context.Context, id uuid.UUID, audioPath, message string) error {
	if m.MarkReadyFn != nil {
		return m.MarkReadyFn(ctx, id, audioPath, message)
	}
	return m.DefaultError
}

// MarkListened implements store.ReviewFileStore
func (m *MockReviewFileStore) MarkListened(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkListenedFn != nil {
		return m.MarkListenedFn(ctx, id, at)
	}
	return m.DefaultError
}

// WithTx implements store.ReviewFileStore
func (m *MockReviewFileStore) WithTx(tx *sql.Tx) store.ReviewFileStore {
	if m.WithTxFn != nil {
		return m.WithTxFn(tx)
	}
	return m
}
