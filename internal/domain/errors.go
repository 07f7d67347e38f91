package domain

import "errors"

// Errors shared by every entity in the package. Entity files declare their
// own field-level errors and wrap ErrValidation with them.
var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidID            = errors.New("invalid ID")
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")

	// ErrInvalidReviewFileStatus rejects a status string outside the four
	// known review file statuses.
	ErrInvalidReviewFileStatus = errors.New("invalid review file status")

	// ErrInvalidStatusTransition rejects leaving a terminal status, or any
	// move a review file's current status does not allow.
	ErrInvalidStatusTransition = errors.New("invalid review file status transition")

	// ErrUnauthorized means the caller does not own the resource.
	ErrUnauthorized = errors.New("unauthorized operation")
)
