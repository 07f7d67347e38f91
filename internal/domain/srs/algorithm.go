package srs

import (
	"math"
	"time"

	"github.com/phrazzld/memorai/internal/domain"
)

// calculateNewEaseFactor determines the new ease factor based on the review outcome.
//
// The ease factor represents the card's difficulty - higher values mean the card
// is easier and intervals will grow faster.
//
// Parameters:
//   - currentEF: The current ease factor of the card
//   - outcome: The listener's review outcome (Again, Hard, Good, Easy)
//   - graduating: Whether this review takes the card out of its first interval
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new ease factor, rounded to two decimal places and never below
//     params.MinEaseFactor when the outcome lowers it
//
// Algorithm behavior:
//   - "Again" always lowers the ease factor (typically -0.20)
//   - A graduating review leaves the ease factor untouched
//   - "Hard" lowers (typically -0.15), "Easy" raises (typically +0.15), "Good" keeps it
//   - There is no upper bound; easy cards keep accelerating
func calculateNewEaseFactor(
	currentEF float64,
	outcome domain.ReviewOutcome,
	graduating bool,
	params *Params,
) float64 {
	if graduating {
		return roundEase(currentEF)
	}

	newEF := currentEF + params.EaseFactorAdjustment[outcome]

	// Only decreasing adjustments are clamped
	if params.EaseFactorAdjustment[outcome] < 0 && newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return roundEase(newEF)
}

// calculateNewInterval determines the new interval in days.
//
// Parameters:
//   - currentInterval: The current interval in days (at least 1)
//   - newEF: The ease factor produced by calculateNewEaseFactor for this review
//   - outcome: The listener's review outcome (Again, Hard, Good, Easy)
//   - graduating: Whether this review takes the card out of its first interval
//   - params: Configuration parameters for the SRS algorithm
//
// Returns:
//   - The new interval, rounded up to a whole day and never below 1
//
// Algorithm behavior:
//   - "Again": resets to params.LapseInterval
//   - Graduation (interval 1, outcome Good or Easy): params.GraduationInterval
//   - "Hard": current × 1.2, ease factor not applied
//   - "Good": current × ease factor
//   - "Easy": current × new ease factor × 1.3
func calculateNewInterval(
	currentInterval int,
	newEF float64,
	outcome domain.ReviewOutcome,
	graduating bool,
	params *Params,
) int {
	if outcome == domain.ReviewOutcomeAgain {
		return params.LapseInterval
	}

	if graduating {
		return params.GraduationInterval
	}

	raw := float64(currentInterval) * params.IntervalModifier[outcome]
	if outcome != domain.ReviewOutcomeHard {
		raw *= newEF
	}

	interval := int(math.Ceil(raw - params.IntervalTolerance))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// calculateDueDate converts an interval into the calendar day of the next review.
func calculateDueDate(interval int, today time.Time) time.Time {
	return domain.DateOf(today).AddDate(0, 0, interval)
}

// calculateNext orchestrates a full scheduling step for one review.
//
// A card graduates when it sits at an interval of one day and the outcome is
// Good or Easy. Hard on a one-day card is treated as a regular Hard review so
// the card grows slowly instead of jumping straight to the graduation interval.
func calculateNext(state State, outcome domain.ReviewOutcome, today time.Time, params *Params) Result {
	current := state.Interval
	if current < 1 {
		current = 1
	}

	graduating := outcome != domain.ReviewOutcomeAgain &&
		outcome != domain.ReviewOutcomeHard &&
		current == 1

	ef := calculateNewEaseFactor(state.EaseFactor, outcome, graduating, params)
	interval := calculateNewInterval(current, ef, outcome, graduating, params)

	return Result{
		Interval:   interval,
		EaseFactor: ef,
		DueDate:    calculateDueDate(interval, today),
	}
}

func roundEase(ef float64) float64 {
	return math.Round(ef*100) / 100
}
