package srs

import (
	"github.com/phrazzld/memorai/internal/domain"
)

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Core limits
	MinEaseFactor float64

	// Adjustments for different review outcomes
	EaseFactorAdjustment map[domain.ReviewOutcome]float64
	IntervalModifier     map[domain.ReviewOutcome]float64

	// Special case handling
	LapseInterval      int
	GraduationInterval int

	// IntervalTolerance absorbs floating point noise before rounding an
	// interval up, so 10 × 1.2 schedules 12 days rather than 13.
	IntervalTolerance float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	// Core limits
	MinEaseFactor float64

	// Ease factor adjustments
	AgainEaseFactorAdjustment float64
	HardEaseFactorAdjustment  float64
	EasyEaseFactorAdjustment  float64

	// Interval modifiers
	HardIntervalModifier float64
	EasyIntervalModifier float64

	// Special intervals
	LapseInterval      int
	GraduationInterval int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,

		// Default ease factor adjustments
		EaseFactorAdjustment: map[domain.ReviewOutcome]float64{
			domain.ReviewOutcomeAgain: -0.20,
			domain.ReviewOutcomeHard:  -0.15,
			domain.ReviewOutcomeGood:  0.0,
			domain.ReviewOutcomeEasy:  0.15,
		},

		// Default interval modifiers, applied on top of the current interval
		IntervalModifier: map[domain.ReviewOutcome]float64{
			domain.ReviewOutcomeHard: 1.2, // Ease factor is not applied
			domain.ReviewOutcomeGood: 1.0, // Ease factor only
			domain.ReviewOutcomeEasy: 1.3, // Ease factor plus bonus
		},

		LapseInterval:      1,
		GraduationInterval: 6,
		IntervalTolerance:  1e-9,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values in config keep the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}

	if config.AgainEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.ReviewOutcomeAgain] = config.AgainEaseFactorAdjustment
	}
	if config.HardEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.ReviewOutcomeHard] = config.HardEaseFactorAdjustment
	}
	if config.EasyEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.ReviewOutcomeEasy] = config.EasyEaseFactorAdjustment
	}

	if config.HardIntervalModifier > 0 {
		params.IntervalModifier[domain.ReviewOutcomeHard] = config.HardIntervalModifier
	}
	if config.EasyIntervalModifier > 0 {
		params.IntervalModifier[domain.ReviewOutcomeEasy] = config.EasyIntervalModifier
	}

	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}
	if config.GraduationInterval > 0 {
		params.GraduationInterval = config.GraduationInterval
	}

	return params
}
