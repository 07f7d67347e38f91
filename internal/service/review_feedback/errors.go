package review_feedback

import "errors"

var (
	// ErrReviewFileNotFound is returned when the review file does not exist
	// or belongs to another owner.
	ErrReviewFileNotFound = errors.New("review file not found")

	// ErrReviewFileNotReady is returned when feedback is submitted for a
	// review file that is not ready.
	ErrReviewFileNotReady = errors.New("review file is not ready")

	// ErrCardNotInReviewFile is returned when feedback names a card the
	// review file does not contain.
	ErrCardNotInReviewFile = errors.New("card is not part of the review file")

	// ErrEmptyFeedback is returned when no card feedback is submitted.
	ErrEmptyFeedback = errors.New("feedback cannot be empty")

	// ErrNotificationNotFound is returned when the notification does not
	// exist for the owner.
	ErrNotificationNotFound = errors.New("notification not found")
)
