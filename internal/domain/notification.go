package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyNotificationOwnerID = errors.New("notification owner ID cannot be empty")
	ErrEmptyNotificationMessage = errors.New("notification message cannot be empty")
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotification creates an unread notification.
func NewNotification(ownerID, message, link string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrInvalidID
	}
	if strings.TrimSpace(n.OwnerID) == "" {
		return ErrEmptyNotificationOwnerID
	}
	if strings.TrimSpace(n.Message) == "" {
		return ErrEmptyNotificationMessage
	}
	return nil
}
