// Package openai provides a generation.TextGenerator backed by the OpenAI
// Responses API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/phrazzld/memorai/internal/config"
	"github.com/phrazzld/memorai/internal/generation"
)

// responsesAPI is the subset of responses.ResponseService used by the generator.
type responsesAPI interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// Generator implements generation.TextGenerator using OpenAI.
type Generator struct {
	logger    *slog.Logger
	responses responsesAPI
	model     string
	retry     generation.RetryPolicy
}

var _ generation.TextGenerator = (*Generator)(nil)

// NewGenerator creates a Generator from the LLM configuration.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	return newGenerator(logger, &client.Responses, cfg), nil
}

func newGenerator(logger *slog.Logger, api responsesAPI, cfg config.LLMConfig) *Generator {
	return &Generator{
		logger:    logger.With("component", "openai_generator"),
		responses: api,
		model:     cfg.ModelName,
		retry: generation.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
		},
	}
}

// GenerateText sends req as a system and user message pair.
func (g *Generator) GenerateText(ctx context.Context, req generation.TextRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrInvalidConfig)
	}

	var input responses.ResponseInputParam
	if req.System != "" {
		input = append(input, message(req.System, responses.EasyInputMessageRoleSystem))
	}
	input = append(input, message(req.Prompt, responses.EasyInputMessageRoleUser))

	params := responses.ResponseNewParams{
		Model: openai.ChatModel(g.model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}

	return generation.Retry(ctx, g.logger, g.retry, func(ctx context.Context) (string, error) {
		resp, err := g.responses.New(ctx, params)
		if err != nil {
			return "", classify(err)
		}
		return extractText(resp)
	})
}

func message(text string, role responses.EasyInputMessageRole) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemParamOfMessage(
		responses.ResponseInputMessageContentListParam{
			{OfInputText: &responses.ResponseInputTextParam{Text: text}},
		},
		role,
	)
}

// classify marks client errors other than rate limiting as permanent.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) &&
		apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%w: openai rejected request (%d): %v",
			generation.ErrInvalidResponse, apiErr.StatusCode, err)
	}
	return fmt.Errorf("openai API call: %w", err)
}

func extractText(resp *responses.Response) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.IncompleteDetails.Reason == "content_filter" {
		return "", fmt.Errorf("%w: response stopped by content filter", generation.ErrContentBlocked)
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", fmt.Errorf("%w: response contained no text", generation.ErrInvalidResponse)
	}
	return text, nil
}
