package generation

import "context"

// TextRequest is a single call to a text-generation model.
type TextRequest struct {
	// System is the system instruction guiding the model
	System string

	// Prompt is the user message
	Prompt string

	// MaxTokens bounds the response length; zero leaves it to the provider
	MaxTokens int
}

// TextGenerator defines the boundary between the application core and an
// external LLM service.
type TextGenerator interface {
	// GenerateText returns the model's text response to req.
	// Errors wrap the sentinels in errors.go.
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}
