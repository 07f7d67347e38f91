package api

import (
	"time"

	"github.com/phrazzld/memorai/internal/domain"
)

// DispatchResponse is the body returned by the review generation endpoint.
type DispatchResponse struct {
	Message    string `json:"message"`
	ChunkCount int    `json:"chunk_count"`
}

// FeedbackItem is one card's recall outcome.
type FeedbackItem struct {
	CardID  string `json:"card_id" validate:"required,uuid"`
	Outcome string `json:"outcome" validate:"required,oneof=again hard good easy"`
}

// FeedbackRequest is the body of a feedback submission.
type FeedbackRequest struct {
	Feedback []FeedbackItem `json:"feedback" validate:"required,min=1,dive"`
}

// ReviewFileResponse is the API view of a review file.
type ReviewFileResponse struct {
	ID              string     `json:"id"`
	DeckID          string     `json:"deck_id"`
	CardIDs         []string   `json:"card_ids"`
	CardCount       int        `json:"card_count"`
	Status          string     `json:"status"`
	StatusMessage   string     `json:"status_message,omitempty"`
	AudioPath       string     `json:"audio_path,omitempty"`
	TimingMarksPath string     `json:"timing_marks_path,omitempty"`
	IsListened      bool       `json:"is_listened"`
	LastListenedAt  *time.Time `json:"last_listened_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CardScheduleResponse is a card's scheduling state after feedback.
type CardScheduleResponse struct {
	ID         string    `json:"id"`
	DueDate    time.Time `json:"due_date"`
	Interval   int       `json:"srs_interval"`
	EaseFactor float64   `json:"srs_ease_factor"`
}

// FeedbackResponse lists the rescheduled cards.
type FeedbackResponse struct {
	Cards []CardScheduleResponse `json:"cards"`
}

// NotificationResponse is the API view of a notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func reviewFileToResponse(rf *domain.ReviewFile) ReviewFileResponse {
	cardIDs := make([]string, len(rf.CardIDs))
	for i, id := range rf.CardIDs {
		cardIDs[i] = id.String()
	}
	return ReviewFileResponse{
		ID:              rf.ID.String(),
		DeckID:          rf.DeckID.String(),
		CardIDs:         cardIDs,
		CardCount:       rf.CardCount,
		Status:          string(rf.Status),
		StatusMessage:   rf.StatusMessage,
		AudioPath:       rf.AudioPath,
		TimingMarksPath: rf.TimingMarksPath,
		IsListened:      rf.IsListened,
		LastListenedAt:  rf.LastListenedAt,
		CreatedAt:       rf.CreatedAt,
		UpdatedAt:       rf.UpdatedAt,
	}
}

func cardToScheduleResponse(c *domain.Card) CardScheduleResponse {
	return CardScheduleResponse{
		ID:         c.ID.String(),
		DueDate:    c.DueDate,
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
	}
}

func notificationToResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID.String(),
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
