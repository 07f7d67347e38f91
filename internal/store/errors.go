package store

import (
	"errors"
	"fmt"
)

// Sentinels every store implementation maps its failures onto. Callers match
// them with errors.Is; the entity-specific not-found errors all wrap
// ErrNotFound.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicate         = errors.New("entity already exists")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrTransactionFailed = errors.New("transaction failed")

	ErrCardNotFound         = fmt.Errorf("%w: card", ErrNotFound)
	ErrReviewFileNotFound   = fmt.Errorf("%w: review file", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
