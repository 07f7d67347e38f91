package synthesis

import "errors"

var (
	// ErrSynthesisFailed is returned when speech synthesis fails
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrInvalidRequest is returned for requests missing markup or an output prefix
	ErrInvalidRequest = errors.New("invalid synthesis request")

	// ErrSynthesizerClosed is returned by StartTask after Close
	ErrSynthesizerClosed = errors.New("synthesizer is closed")
)
