package api

import (
	"net/http"

	"github.com/phrazzld/memorai/internal/api/shared"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/service/review_feedback"
)

// NotificationHandler serves the owner's notifications.
type NotificationHandler struct {
	service review_feedback.Service
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(service review_feedback.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListNotifications handles GET /api/notifications. Newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := shared.GetOwnerID(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "Owner ID header required")
		return
	}

	notes, err := h.service.ListNotifications(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}

	resp := make([]NotificationResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, notificationToResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := ownerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), ownerID, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
