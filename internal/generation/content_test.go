package generation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/memorai/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promptMap map[string]string

func (p promptMap) Download(_ context.Context, key string) ([]byte, error) {
	v, ok := p[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(v), nil
}

type recordingGenerator struct {
	mu        sync.Mutex
	requests  []generation.TextRequest
	responses []string
	err       error
}

func (r *recordingGenerator) GenerateText(_ context.Context, req generation.TextRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return "", r.err
	}
	resp := r.responses[0]
	r.responses = r.responses[1:]
	return resp, nil
}

func testConfig() generation.ContentConfig {
	return generation.ContentConfig{
		StoryPromptKey:  "prompts/story.txt",
		MarkupPromptKey: "prompts/markup.txt",
		StoryCardLimit:  4,
		StoryMaxTokens:  100,
		MarkupMaxTokens: 1000,
		Languages: generation.Languages{
			InstructionalName: "English",
			InstructionalCode: "en-US",
			TargetName:        "Spanish",
			TargetCode:        "es-ES",
		},
	}
}

func testPrompts() promptMap {
	return promptMap{
		"prompts/story.txt": "Write a story.",
		"prompts/markup.txt": "Teach {target_language_name} ({target_language_code}) to " +
			"{instructional_language_name} ({instructional_language_code}) speakers.\n" +
			"Story: {story}\nSentences:\n{original_sentences_list}\nAgain: {story}",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBullets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "- a\n- b", generation.Bullets([]string{"a", "b"}, 4))
	assert.Equal(t, "- a\n- b", generation.Bullets([]string{"a", "b", "c"}, 2))
	assert.Equal(t, "", generation.Bullets(nil, 4))
}

func TestContentGenerator_Generate(t *testing.T) {
	t.Parallel()

	text := &recordingGenerator{responses: []string{"Once upon a time.", "<speak>ok</speak>"}}
	gen := generation.NewContentGenerator(text, testPrompts(), testConfig(), discardLogger())

	markup, err := gen.Generate(context.Background(), []string{"uno", "dos", "tres", "cuatro", "cinco"})
	require.NoError(t, err)
	assert.Equal(t, "<speak>ok</speak>", markup)

	require.Len(t, text.requests, 2)

	story := text.requests[0]
	assert.Equal(t, generation.StorySystemPrompt, story.System)
	assert.Equal(t, "Write a story.\n\n- uno\n- dos\n- tres\n- cuatro", story.Prompt)
	assert.Equal(t, 100, story.MaxTokens)

	markupReq := text.requests[1]
	assert.Equal(t, generation.MarkupSystemPrompt, markupReq.System)
	assert.Equal(t, 1000, markupReq.MaxTokens)
	assert.Equal(t,
		"Teach Spanish (es-ES) to English (en-US) speakers.\n"+
			"Story: Once upon a time.\nSentences:\n- uno\n- dos\n- tres\n- cuatro\nAgain: Once upon a time.",
		markupReq.Prompt)
	assert.NotContains(t, markupReq.Prompt, "cinco")
}

func TestContentGenerator_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		gen := generation.NewContentGenerator(&recordingGenerator{}, testPrompts(), testConfig(), discardLogger())
		_, err := gen.Generate(context.Background(), nil)
		assert.ErrorIs(t, err, generation.ErrEmptyInput)
	})

	t.Run("missing prompt", func(t *testing.T) {
		t.Parallel()
		text := &recordingGenerator{}
		gen := generation.NewContentGenerator(text, promptMap{}, testConfig(), discardLogger())
		_, err := gen.Generate(context.Background(), []string{"uno"})
		assert.ErrorIs(t, err, generation.ErrPromptUnavailable)
		assert.Empty(t, text.requests)
	})

	t.Run("model failure", func(t *testing.T) {
		t.Parallel()
		text := &recordingGenerator{err: generation.ErrContentBlocked}
		gen := generation.NewContentGenerator(text, testPrompts(), testConfig(), discardLogger())
		_, err := gen.Generate(context.Background(), []string{"uno"})
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
		assert.Len(t, text.requests, 1)
	})
}
