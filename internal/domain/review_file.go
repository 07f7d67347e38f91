package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReviewFileStatus represents the processing state of a review file
type ReviewFileStatus string

// Possible review file status values
const (
	ReviewFileStatusPending    ReviewFileStatus = "pending"
	ReviewFileStatusProcessing ReviewFileStatus = "processing"
	ReviewFileStatusReady      ReviewFileStatus = "ready"
	ReviewFileStatusError      ReviewFileStatus = "error"
)

// Common validation errors for ReviewFile
var (
	ErrEmptyReviewFileID      = errors.New("review file ID cannot be empty")
	ErrEmptyReviewFileDeckID  = errors.New("review file deck ID cannot be empty")
	ErrEmptyReviewFileOwnerID = errors.New("review file owner ID cannot be empty")
	ErrEmptyReviewFileCards   = errors.New("review file must contain at least one card")
)

// transitions lists the statuses reachable from each status. Rewriting the
// current status is always allowed so redelivered work stays idempotent.
var transitions = map[ReviewFileStatus][]ReviewFileStatus{
	ReviewFileStatusPending:    {ReviewFileStatusProcessing, ReviewFileStatusError},
	ReviewFileStatusProcessing: {ReviewFileStatusReady, ReviewFileStatusError},
	ReviewFileStatusReady:      nil,
	ReviewFileStatusError:      nil,
}

// IsValid reports whether s is a known status.
func (s ReviewFileStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition can leave s.
func (s ReviewFileStatus) IsTerminal() bool {
	return s == ReviewFileStatusReady || s == ReviewFileStatusError
}

// CanTransitionTo reports whether a review file in status s may move to next.
func (s ReviewFileStatus) CanTransitionTo(next ReviewFileStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidStatusTransition wrapped with both
// statuses when the move from s to next is not allowed.
func (s ReviewFileStatus) ValidateTransition(next ReviewFileStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReviewFileStatus, next)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return nil
}

// ReviewFile is one narrated audio review generated from a chunk of a
// deck's due cards. It tracks the cards it covers, the processing state,
// and the object store keys of the produced audio and timing marks.
type ReviewFile struct {
	ID              uuid.UUID        `json:"id"`
	OwnerID         string           `json:"owner_id"`
	DeckID          uuid.UUID        `json:"deck_id"`
	CardIDs         []uuid.UUID      `json:"card_ids"`
	CardCount       int              `json:"card_count"`
	Status          ReviewFileStatus `json:"status"`
	StatusMessage   string           `json:"status_message"`
	AudioPath       string           `json:"audio_path,omitempty"`
	TimingMarksPath string           `json:"timing_marks_path,omitempty"`
	IsListened      bool             `json:"is_listened"`
	LastListenedAt  *time.Time       `json:"last_listened_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewReviewFile creates a pending review file for the given cards.
// Returns an error if validation fails.
func NewReviewFile(ownerID string, deckID uuid.UUID, cardIDs []uuid.UUID) (*ReviewFile, error) {
	now := time.Now().UTC()
	ids := make([]uuid.UUID, len(cardIDs))
	copy(ids, cardIDs)

	rf := &ReviewFile{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		DeckID:        deckID,
		CardIDs:       ids,
		CardCount:     len(ids),
		Status:        ReviewFileStatusPending,
		StatusMessage: "Review file generation queued",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := rf.Validate(); err != nil {
		return nil, err
	}

	return rf, nil
}

// Validate checks if the ReviewFile has valid data.
func (r *ReviewFile) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReviewFileID
	}
	if r.DeckID == uuid.Nil {
		return ErrEmptyReviewFileDeckID
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrEmptyReviewFileOwnerID
	}
	if len(r.CardIDs) == 0 {
		return ErrEmptyReviewFileCards
	}
	if !r.Status.IsValid() {
		return ErrInvalidReviewFileStatus
	}
	return nil
}

// TransitionTo moves the review file to status, recording message.
// Returns ErrInvalidStatusTransition if the move is not allowed.
func (r *ReviewFile) TransitionTo(status ReviewFileStatus, message string) error {
	if err := r.Status.ValidateTransition(status); err != nil {
		return err
	}
	r.Status = status
	r.StatusMessage = message
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ContainsCard reports whether cardID is one of the file's cards.
func (r *ReviewFile) ContainsCard(cardID uuid.UUID) bool {
	for _, id := range r.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

// MarkListened flags the review file as listened at the given time.
func (r *ReviewFile) MarkListened(at time.Time) {
	at = at.UTC()
	r.IsListened = true
	r.LastListenedAt = &at
	r.UpdatedAt = at
}
