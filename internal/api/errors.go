package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/memorai/internal/api/shared"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/service/review_feedback"
	"github.com/phrazzld/memorai/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error itself to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, review_feedback.ErrReviewFileNotFound),
		errors.Is(err, review_feedback.ErrNotificationNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, review_feedback.ErrReviewFileNotReady),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict

	case errors.Is(err, review_feedback.ErrCardNotInReviewFile),
		errors.Is(err, review_feedback.ErrEmptyFeedback),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidReviewOutcome),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, review_feedback.ErrReviewFileNotFound),
		errors.Is(err, store.ErrReviewFileNotFound):
		return "Review file not found"
	case errors.Is(err, review_feedback.ErrNotificationNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		return "Notification not found"
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, review_feedback.ErrReviewFileNotReady):
		return "Review file is not ready"
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return "Review file is not in a state that allows this operation"
	case errors.Is(err, review_feedback.ErrCardNotInReviewFile):
		return "Card is not part of this review file"
	case errors.Is(err, review_feedback.ErrEmptyFeedback):
		return "Feedback cannot be empty"
	case errors.Is(err, domain.ErrInvalidReviewOutcome):
		return "Invalid review outcome"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation):
		return SanitizeValidationError(err)
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	// Fallback for validator text that was flattened into a plain error.
	// Example: "Key: 'CardFeedback.Outcome' Error:Field validation for 'Outcome' failed on the 'oneof' tag"
	errMsg := err.Error()
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 5 {
				return fmt.Sprintf("Invalid %s: %s", fieldParts[1], getValidationTagMessage(fieldParts[3]))
			}
			if len(fieldParts) >= 3 {
				return fmt.Sprintf("Invalid %s", fieldParts[1])
			}
		}
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "dive":
		return "invalid entry"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid ID"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message mapped from err.
// A non-empty message overrides the mapped one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
