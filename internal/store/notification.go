package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByOwner returns the owner's notifications, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Notification, error)

	// MarkRead flags one of the owner's notifications as read.
	// Returns ErrNotificationNotFound if no such notification belongs to the owner.
	MarkRead(ctx context.Context, ownerID string, id uuid.UUID) error
}
