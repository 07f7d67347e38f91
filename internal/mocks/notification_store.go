package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/store"
)

var _ store.NotificationStore = (*MockNotificationStore)(nil)

// MockNotificationStore implements store.NotificationStore for testing
type MockNotificationStore struct {
	CreateFn      func(ctx context.Context, n *domain.Notification) error
	ListByOwnerFn func(ctx context.Context, ownerID string) ([]*domain.Notification, error)
	MarkReadFn    func(ctx context.Context, ownerID string, id uuid.UUID) error

	// Default return values
	Notifications []*domain.Notification
	DefaultError  error
}

// Create implements store.NotificationStore
func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return m.DefaultError
}

// ListByOwner implements store.NotificationStore
func (m *MockNotificationStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Notification, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID)
	}
	return m.Notifications, m.DefaultError
}

// MarkRead implements store.NotificationStore
func (m *MockNotificationStore) MarkRead(ctx context.Context, ownerID string, id uuid.UUID) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, ownerID, id)
	}
	return m.DefaultError
}
