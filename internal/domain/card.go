package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scheduling defaults for newly created cards.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	DefaultInterval   = 1
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardOwnerIDEmpty is returned when a card has no owner.
	ErrCardOwnerIDEmpty = errors.New("card owner ID cannot be empty")

	// ErrCardTextEmpty is returned when either side of a card is blank.
	ErrCardTextEmpty = errors.New("card front and back text cannot be empty")

	// ErrInvalidInterval is returned when an SRS interval is below one day.
	ErrInvalidInterval = errors.New("interval must be at least 1 day")

	// ErrInvalidEaseFactor is returned when an ease factor is below the floor.
	ErrInvalidEaseFactor = errors.New("ease factor must be at least 1.3")
)

// Card is a flashcard belonging to a deck, together with its spaced
// repetition state. DueDate and InclusionDate are calendar dates stored
// as UTC midnight.
type Card struct {
	ID         uuid.UUID `json:"id"`
	DeckID     uuid.UUID `json:"deck_id"`
	OwnerID    string    `json:"owner_id"`
	FrontText  string    `json:"front_text"`
	BackText   string    `json:"back_text"`
	DueDate    time.Time `json:"due_date"`
	Interval   int       `json:"srs_interval"`
	EaseFactor float64   `json:"srs_ease_factor"`
	// InclusionDate is the day the card was last bundled into a review file.
	InclusionDate *time.Time `json:"review_inclusion_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewCard creates a card that is due today with default scheduling state.
// Returns an error if validation fails.
func NewCard(deckID uuid.UUID, ownerID, frontText, backText string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:         uuid.New(),
		DeckID:     deckID,
		OwnerID:    ownerID,
		FrontText:  frontText,
		BackText:   backText,
		DueDate:    DateOf(now),
		Interval:   DefaultInterval,
		EaseFactor: DefaultEaseFactor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrCardOwnerIDEmpty
	}
	if strings.TrimSpace(c.FrontText) == "" || strings.TrimSpace(c.BackText) == "" {
		return ErrCardTextEmpty
	}
	if c.Interval < 1 {
		return ErrInvalidInterval
	}
	if c.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}
	return nil
}

// IncludedOn reports whether the card was bundled into a review on the given day.
func (c *Card) IncludedOn(day time.Time) bool {
	return c.InclusionDate != nil && DateOf(*c.InclusionDate).Equal(DateOf(day))
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
