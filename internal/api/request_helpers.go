package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/memorai/internal/api/shared"
	"github.com/phrazzld/memorai/internal/domain"
)

// getPathUUID parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}
	return id, nil
}

// ownerAndPathUUID returns the owner id from the context and a UUID path
// parameter. On failure it writes the error response and returns false.
func ownerAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (string, uuid.UUID, bool) {
	ownerID, ok := shared.GetOwnerID(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "Owner ID header required")
		return "", uuid.Nil, false
	}

	id, err := getPathUUID(r, paramName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return "", uuid.Nil, false
	}
	return ownerID, id, true
}
