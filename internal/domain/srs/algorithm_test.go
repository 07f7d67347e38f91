package srs

import (
	"math"
	"testing"
	"time"

	"github.com/phrazzld/memorai/internal/domain"
)

const epsilon = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestCalculateNext(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()
	today := time.Date(2024, 1, 10, 17, 45, 0, 0, time.UTC)

	testCases := []struct {
		name         string
		state        State
		outcome      domain.ReviewOutcome
		wantInterval int
		wantEF       float64
	}{
		{
			name:         "Again resets interval and lowers ease",
			state:        State{Interval: 10, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeAgain,
			wantInterval: 1,
			wantEF:       2.3,
		},
		{
			name:         "Again never lowers ease below the floor",
			state:        State{Interval: 3, EaseFactor: 1.4},
			outcome:      domain.ReviewOutcomeAgain,
			wantInterval: 1,
			wantEF:       1.3,
		},
		{
			name:         "Good on a one day card graduates",
			state:        State{Interval: 1, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeGood,
			wantInterval: 6,
			wantEF:       2.5,
		},
		{
			name:         "Easy on a one day card graduates without changing ease",
			state:        State{Interval: 1, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeEasy,
			wantInterval: 6,
			wantEF:       2.5,
		},
		{
			name:         "Hard on a one day card does not graduate",
			state:        State{Interval: 1, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeHard,
			wantInterval: 2,
			wantEF:       2.35,
		},
		{
			name:         "Good multiplies by ease",
			state:        State{Interval: 6, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeGood,
			wantInterval: 15,
			wantEF:       2.5,
		},
		{
			name:         "Easy uses the raised ease and bonus",
			state:        State{Interval: 6, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeEasy,
			wantInterval: 21,
			wantEF:       2.65,
		},
		{
			name:         "Hard grows slowly and rounds cleanly",
			state:        State{Interval: 10, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeHard,
			wantInterval: 12,
			wantEF:       2.35,
		},
		{
			name:         "Hard clamps ease at the floor",
			state:        State{Interval: 7, EaseFactor: 1.35},
			outcome:      domain.ReviewOutcomeHard,
			wantInterval: 9,
			wantEF:       1.3,
		},
		{
			name:         "Good rounds fractional intervals up",
			state:        State{Interval: 7, EaseFactor: 2.3},
			outcome:      domain.ReviewOutcomeGood,
			wantInterval: 17,
			wantEF:       2.3,
		},
		{
			name:         "Zero interval is treated as one day",
			state:        State{Interval: 0, EaseFactor: 2.5},
			outcome:      domain.ReviewOutcomeGood,
			wantInterval: 6,
			wantEF:       2.5,
		},
	}

	for _, tc := range testCases {
		tc := tc // Capture range variable for parallel execution
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := calculateNext(tc.state, tc.outcome, today, params)

			if got.Interval != tc.wantInterval {
				t.Errorf("interval: expected %d, got %d", tc.wantInterval, got.Interval)
			}
			if !floatEquals(got.EaseFactor, tc.wantEF) {
				t.Errorf("ease factor: expected %v, got %v", tc.wantEF, got.EaseFactor)
			}

			wantDue := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, tc.wantInterval)
			if !got.DueDate.Equal(wantDue) {
				t.Errorf("due date: expected %v, got %v", wantDue, got.DueDate)
			}
		})
	}
}

func TestCalculateNewEaseFactorRounding(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	got := calculateNewEaseFactor(2.1, domain.ReviewOutcomeEasy, false, params)
	if !floatEquals(got, 2.25) {
		t.Errorf("expected 2.25, got %v", got)
	}

	// No upper bound on ease
	got = calculateNewEaseFactor(3.0, domain.ReviewOutcomeEasy, false, params)
	if !floatEquals(got, 3.15) {
		t.Errorf("expected 3.15, got %v", got)
	}
}

func TestCalculateNextIsDeterministic(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	today := time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC)
	state := State{Interval: 13, EaseFactor: 2.17}

	first := calculateNext(state, domain.ReviewOutcomeEasy, today, params)
	for i := 0; i < 10; i++ {
		if got := calculateNext(state, domain.ReviewOutcomeEasy, today, params); got != first {
			t.Fatalf("expected identical results, got %+v and %+v", first, got)
		}
	}
}
