package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// StorySystemPrompt instructs the model for the story stage.
	StorySystemPrompt = "Generate a short story based on the user's list."

	// MarkupSystemPrompt instructs the model for the markup stage.
	MarkupSystemPrompt = "Generate SSML markup based on the user's provided story and sentences."
)

// PromptSource loads prompt templates by key.
type PromptSource interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Languages names the languages interpolated into the markup template.
type Languages struct {
	InstructionalName string
	InstructionalCode string
	TargetName        string
	TargetCode        string
}

// ContentConfig configures a ContentGenerator.
type ContentConfig struct {
	StoryPromptKey  string
	MarkupPromptKey string

	// StoryCardLimit is how many sentences feed the story and markup
	StoryCardLimit int

	StoryMaxTokens  int
	MarkupMaxTokens int

	Languages Languages
}

// Prompts holds the two loaded templates.
type Prompts struct {
	Story  string
	Markup string
}

// ContentGenerator produces synthesizable markup from card sentences.
type ContentGenerator struct {
	text    TextGenerator
	prompts PromptSource
	config  ContentConfig
	logger  *slog.Logger
}

// NewContentGenerator creates a ContentGenerator.
func NewContentGenerator(
	text TextGenerator,
	prompts PromptSource,
	config ContentConfig,
	logger *slog.Logger,
) *ContentGenerator {
	if config.StoryCardLimit <= 0 {
		config.StoryCardLimit = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentGenerator{
		text:    text,
		prompts: prompts,
		config:  config,
		logger:  logger.With("component", "content_generator"),
	}
}

// LoadPrompts reads both templates from the prompt source.
func (g *ContentGenerator) LoadPrompts(ctx context.Context) (Prompts, error) {
	story, err := g.prompts.Download(ctx, g.config.StoryPromptKey)
	if err != nil {
		return Prompts{}, fmt.Errorf("%w: %s: %v", ErrPromptUnavailable, g.config.StoryPromptKey, err)
	}

	markup, err := g.prompts.Download(ctx, g.config.MarkupPromptKey)
	if err != nil {
		return Prompts{}, fmt.Errorf("%w: %s: %v", ErrPromptUnavailable, g.config.MarkupPromptKey, err)
	}

	return Prompts{Story: string(story), Markup: string(markup)}, nil
}

// Generate loads the prompt templates and returns markup for sentences.
// Only the first StoryCardLimit sentences are used.
func (g *ContentGenerator) Generate(ctx context.Context, sentences []string) (string, error) {
	if len(sentences) == 0 {
		return "", ErrEmptyInput
	}

	prompts, err := g.LoadPrompts(ctx)
	if err != nil {
		return "", err
	}

	bullets := Bullets(sentences, g.config.StoryCardLimit)

	story, err := g.text.GenerateText(ctx, TextRequest{
		System:    StorySystemPrompt,
		Prompt:    prompts.Story + "\n\n" + bullets,
		MaxTokens: g.config.StoryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("story generation: %w", err)
	}

	g.logger.DebugContext(ctx, "generated story", "story_length", len(story))

	markup, err := g.text.GenerateText(ctx, TextRequest{
		System:    MarkupSystemPrompt,
		Prompt:    g.FillMarkupTemplate(prompts.Markup, story, bullets),
		MaxTokens: g.config.MarkupMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("markup generation: %w", err)
	}

	g.logger.DebugContext(ctx, "generated markup", "markup_length", len(markup))
	return markup, nil
}

// FillMarkupTemplate substitutes every placeholder of the markup template.
func (g *ContentGenerator) FillMarkupTemplate(template, story, bullets string) string {
	lang := g.config.Languages
	return strings.NewReplacer(
		"{instructional_language_name}", lang.InstructionalName,
		"{instructional_language_code}", lang.InstructionalCode,
		"{target_language_name}", lang.TargetName,
		"{target_language_code}", lang.TargetCode,
		"{story}", story,
		"{original_sentences_list}", bullets,
	).Replace(template)
}

// Bullets formats up to limit sentences as a "- " list, one per line.
func Bullets(sentences []string, limit int) string {
	if limit > 0 && len(sentences) > limit {
		sentences = sentences[:limit]
	}
	lines := make([]string, len(sentences))
	for i, s := range sentences {
		lines[i] = "- " + s
	}
	return strings.Join(lines, "\n")
}
