package mocks

import (
	"context"

	"github.com/phrazzld/memorai/internal/generation"
)

var _ generation.TextGenerator = (*MockTextGenerator)(nil)

// MockTextGenerator implements generation.TextGenerator for testing
type MockTextGenerator struct {
	GenerateTextFn func(ctx context.Context, req generation.TextRequest) (string, error)

	// Default return values
	Text         string
	DefaultError error
}

// GenerateText implements generation.TextGenerator
func (m *MockTextGenerator) GenerateText(ctx context.Context, req generation.TextRequest) (string, error) {
	if m.GenerateTextFn != nil {
		return m.GenerateTextFn(ctx, req)
	}
	return m.Text, m.DefaultError
}
