package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/memorai/internal/api/shared"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/redact"
	"github.com/phrazzld/memorai/internal/service/review_feedback"
	"github.com/phrazzld/memorai/internal/service/review_generation"
)

// ReviewDispatcher starts review generation for a deck.
type ReviewDispatcher interface {
	Start(ctx context.Context, deckID uuid.UUID, requesterID string) review_generation.Result
}

// ReviewFileHandler serves review generation, review file reads and
// feedback submission.
type ReviewFileHandler struct {
	dispatcher ReviewDispatcher
	feedback   review_feedback.Service
	logger     *slog.Logger
}

// NewReviewFileHandler creates a ReviewFileHandler.
func NewReviewFileHandler(
	dispatcher ReviewDispatcher,
	feedback review_feedback.Service,
	logger *slog.Logger,
) *ReviewFileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewFileHandler{
		dispatcher: dispatcher,
		feedback:   feedback,
		logger:     logger.With(slog.String("component", "review_file_handler")),
	}
}

// StartReview handles POST /api/decks/{deckID}/review-files.
// The response status is the dispatcher's.
func (h *ReviewFileHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	ownerID, deckID, ok := ownerAndPathUUID(w, r, "deckID")
	if !ok {
		return
	}

	result := h.dispatcher.Start(r.Context(), deckID, ownerID)

	resp := DispatchResponse{Message: result.Message, ChunkCount: result.ChunkCount}
	if result.StatusCode >= http.StatusInternalServerError {
		// The caller sees the failure, minus credentials and infrastructure details.
		resp.Message = redact.String(result.Message)
		logger.FromContextOrDefault(r.Context(), h.logger).Error("review generation failed",
			slog.String("deck_id", deckID.String()),
			slog.Int("chunk_count", result.ChunkCount),
			slog.String("error", resp.Message))
	}
	shared.RespondWithJSON(w, r, result.StatusCode, resp)
}

// ListReviewFiles handles GET /api/decks/{deckID}/review-files.
func (h *ReviewFileHandler) ListReviewFiles(w http.ResponseWriter, r *http.Request) {
	ownerID, deckID, ok := ownerAndPathUUID(w, r, "deckID")
	if !ok {
		return
	}

	files, err := h.feedback.ListReviewFiles(r.Context(), ownerID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list review files")
		return
	}

	resp := make([]ReviewFileResponse, 0, len(files))
	for _, rf := range files {
		resp = append(resp, reviewFileToResponse(rf))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetReviewFile handles GET /api/review-files/{id}.
func (h *ReviewFileHandler) GetReviewFile(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := ownerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	rf, err := h.feedback.GetReviewFile(r.Context(), ownerID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, reviewFileToResponse(rf))
}

// SubmitFeedback handles POST /api/review-files/{id}/feedback.
func (h *ReviewFileHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := ownerAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	feedback := make([]review_feedback.CardFeedback, 0, len(req.Feedback))
	for _, item := range req.Feedback {
		cardID, err := uuid.Parse(item.CardID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card_id")
			return
		}
		feedback = append(feedback, review_feedback.CardFeedback{
			CardID:  cardID,
			Outcome: domain.ReviewOutcome(item.Outcome),
		})
	}

	cards, err := h.feedback.SubmitFeedback(r.Context(), ownerID, id, feedback)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := FeedbackResponse{Cards: make([]CardScheduleResponse, 0, len(cards))}
	for _, c := range cards {
		resp.Cards = append(resp.Cards, cardToScheduleResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
