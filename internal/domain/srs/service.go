package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/memorai/internal/domain"
)

// Common errors
var (
	ErrInvalidOutcome = errors.New("invalid review outcome")
	ErrInvalidState   = errors.New("invalid scheduling state")
)

// State is the scheduling state of a card before a review.
type State struct {
	Interval   int
	EaseFactor float64
}

// StateOf extracts the scheduling state from a card.
func StateOf(card *domain.Card) State {
	return State{Interval: card.Interval, EaseFactor: card.EaseFactor}
}

// Result is the scheduling state of a card after a review.
type Result struct {
	Interval   int
	EaseFactor float64
	DueDate    time.Time
}

// Apply writes the result onto the card.
func (r Result) Apply(card *domain.Card) {
	card.Interval = r.Interval
	card.EaseFactor = r.EaseFactor
	card.DueDate = r.DueDate
	card.UpdatedAt = time.Now().UTC()
}

// Service defines the interface for SRS algorithm operations
type Service interface {
	// Update computes the next scheduling state for a review performed on today.
	// It is deterministic: equal inputs always yield equal results.
	Update(outcome domain.ReviewOutcome, state State, today time.Time) (Result, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Update implements Service
func (s *defaultService) Update(
	outcome domain.ReviewOutcome,
	state State,
	today time.Time,
) (Result, error) {
	if !outcome.IsValid() {
		return Result{}, ErrInvalidOutcome
	}
	if state.EaseFactor <= 0 {
		return Result{}, ErrInvalidState
	}

	return calculateNext(state, outcome, today, s.params), nil
}
