package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures Retry.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	// BaseDelay is the delay before the first retry; later delays double
	BaseDelay time.Duration
}

// Retry calls fn until it succeeds, returns a permanent error, or the
// policy is exhausted. Waits between attempts use exponential backoff with
// jitter: delay = BaseDelay * 2^attempt * (0.5 + rand(0, 0.5)).
//
// ErrContentBlocked and ErrInvalidResponse are permanent; every other
// error is treated as transient.
func Retry(
	ctx context.Context,
	logger *slog.Logger,
	policy RetryPolicy,
	fn func(ctx context.Context) (string, error),
) (string, error) {
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		logger.WarnContext(ctx, "Invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	baseDelay := policy.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1

		text, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.InfoContext(ctx, "LLM call succeeded after retry", "attempt", attemptNum)
			}
			return text, nil
		}

		logger.ErrorContext(ctx, "LLM call failed",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1,
			"error", err)

		if errors.Is(err, ErrContentBlocked) || errors.Is(err, ErrInvalidResponse) {
			logger.WarnContext(ctx, "Permanent error occurred, not retrying", "error", err)
			return "", err
		}

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				ErrTransientFailure, maxRetries, err)
		}

		backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter)

		logger.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			logger.WarnContext(ctx, "LLM call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}
}
