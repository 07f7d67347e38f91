package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/synthesis"
)

// Common errors
var (
	ErrNilReviewFileStore = errors.New("review file store cannot be nil")
	ErrNilContent         = errors.New("content generator cannot be nil")
	ErrNilSynthesizer     = errors.New("synthesizer cannot be nil")
	ErrNilLogger          = errors.New("logger cannot be nil")
	ErrEmptyChunk         = errors.New("review chunk must contain at least one card")
)

const processingMessage = "Processing"

// ChunkCard is one card of a review chunk.
type ChunkCard struct {
	ID        uuid.UUID `json:"id"`
	FrontText string    `json:"frontText"`
	BackText  string    `json:"backText"`
}

// ReviewChunkMessage is the job message for a single review file.
type ReviewChunkMessage struct {
	DeckID       uuid.UUID   `json:"deckId"`
	ReviewFileID uuid.UUID   `json:"reviewFileId"`
	Cards        []ChunkCard `json:"cards"`
	OwnerID      string      `json:"ownerId"`
}

// Validate checks the message identifies a review file and carries cards.
func (m ReviewChunkMessage) Validate() error {
	if m.ReviewFileID == uuid.Nil {
		return domain.ErrEmptyReviewFileID
	}
	if m.OwnerID == "" {
		return domain.ErrEmptyReviewFileOwnerID
	}
	if err := domain.ValidateOwnerID(m.OwnerID); err != nil {
		return err
	}
	if len(m.Cards) == 0 {
		return ErrEmptyChunk
	}
	return nil
}

// ReviewFileUpdater is the part of the review file store a chunk task writes.
type ReviewFileUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReviewFileStatus, message string) error
	SetTimingMarksPath(ctx context.Context, id uuid.UUID, path string) error
	SetAudioPath(ctx context.Context, id uuid.UUID, path string) error
}

// ContentGenerator produces synthesizable markup from card sentences.
type ContentGenerator interface {
	Generate(ctx context.Context, sentences []string) (string, error)
}

// ReviewChunkConfig holds the settings shared by every chunk task.
type ReviewChunkConfig struct {
	// AudioPrefix is the object key prefix for synthesized output
	AudioPrefix string

	// CompletionTopic receives the audio task's completion event
	CompletionTopic string
}

// ReviewChunkTask turns one chunk of cards into narrated audio. It marks the
// review file processing, generates markup, and starts the timing-marks and
// audio synthesis tasks. The audio task's completion is handled by a
// SynthesisCompletionTask.
type ReviewChunkTask struct {
	id          uuid.UUID
	msg         ReviewChunkMessage
	reviewFiles ReviewFileUpdater
	content     ContentGenerator
	synthesizer synthesis.Synthesizer
	config      ReviewChunkConfig
	logger      *slog.Logger
	status      TaskStatus
}

// ID returns the task's unique identifier
func (t *ReviewChunkTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ReviewChunkTask) Type() string {
	return TaskTypeReviewChunk
}

// Payload returns the job message as JSON
func (t *ReviewChunkTask) Payload() []byte {
	data, err := json.Marshal(t.msg)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *ReviewChunkTask) Status() TaskStatus {
	return t.status
}

// Message returns the job message the task was built from.
func (t *ReviewChunkTask) Message() ReviewChunkMessage {
	return t.msg
}

// Execute processes the chunk. A returned error makes the runner retry the
// task; the review file only becomes "error" on the final attempt.
func (t *ReviewChunkTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	log := logger.FromContextOrDefault(ctx, t.logger)
	delivery := DeliveryFromContext(ctx)

	log.InfoContext(ctx, "starting review chunk task",
		"attempt", delivery.Attempt,
		"card_count", len(t.msg.Cards))

	rfID := t.msg.ReviewFileID
	err := t.reviewFiles.UpdateStatus(ctx, rfID, domain.ReviewFileStatusProcessing, processingMessage)
	if errors.Is(err, domain.ErrInvalidStatusTransition) {
		// Already ready or error: a redelivery after the work finished.
		t.status = TaskStatusCompleted
		log.WarnContext(ctx, "review file already finished, skipping chunk", "error", err)
		return nil
	}
	if err != nil {
		t.status = TaskStatusFailed
		log.ErrorContext(ctx, "failed to mark review file processing", "error", err)
		return fmt.Errorf("failed to mark review file processing: %w", err)
	}

	if err := t.process(ctx, log); err != nil {
		t.status = TaskStatusFailed
		// Earlier attempts stay processing: error is terminal and would block the retry.
		t.recordFailure(ctx, log, delivery, err)
		return err
	}

	t.status = TaskStatusCompleted
	log.InfoContext(ctx, "review chunk task completed")
	return nil
}

func (t *ReviewChunkTask) process(ctx context.Context, log *slog.Logger) error {
	sentences := make([]string, len(t.msg.Cards))
	for i, c := range t.msg.Cards {
		sentences[i] = c.BackText
	}

	markup, err := t.content.Generate(ctx, sentences)
	if err != nil {
		return fmt.Errorf("failed to generate review content: %w", err)
	}

	prefix := path.Join(t.config.AudioPrefix, t.msg.ReviewFileID.String(), t.msg.OwnerID)
	rfID := t.msg.ReviewFileID

	marks, err := t.synthesizer.StartTask(ctx, synthesis.Request{
		Markup:    markup,
		Format:    synthesis.FormatTimingMarks,
		KeyPrefix: prefix,
	})
	if err != nil {
		return fmt.Errorf("failed to start timing marks synthesis: %w", err)
	}
	if err := t.reviewFiles.SetTimingMarksPath(ctx, rfID, marks.OutputKey); err != nil {
		return fmt.Errorf("failed to record timing marks path: %w", err)
	}

	audio, err := t.synthesizer.StartTask(ctx, synthesis.Request{
		Markup:    markup,
		Format:    synthesis.FormatMP3,
		KeyPrefix: prefix,
		Topic:     t.config.CompletionTopic,
	})
	if err != nil {
		return fmt.Errorf("failed to start audio synthesis: %w", err)
	}
	if err := t.reviewFiles.SetAudioPath(ctx, rfID, audio.OutputKey); err != nil {
		return fmt.Errorf("failed to record audio path: %w", err)
	}

	log.InfoContext(ctx, "synthesis started",
		"timing_marks_task_id", marks.ID,
		"audio_task_id", audio.ID)
	return nil
}

func (t *ReviewChunkTask) recordFailure(ctx context.Context, log *slog.Logger, d Delivery, cause error) {
	status := domain.ReviewFileStatusProcessing
	message := "retrying: " + cause.Error()
	if d.IsFinal() {
		status = domain.ReviewFileStatusError
		message = cause.Error()
	}

	log.ErrorContext(ctx, "review chunk task failed",
		"error", cause,
		"attempt", d.Attempt,
		"final", d.IsFinal())

	if err := t.reviewFiles.UpdateStatus(ctx, t.msg.ReviewFileID, status, message); err != nil {
		log.ErrorContext(ctx, "failed to record review file failure", "error", err)
	}
}

// ReviewChunkTaskFactory creates ReviewChunkTask instances
type ReviewChunkTaskFactory struct {
	reviewFiles ReviewFileUpdater
	content     ContentGenerator
	synthesizer synthesis.Synthesizer
	config      ReviewChunkConfig
	logger      *slog.Logger
}

// NewReviewChunkTaskFactory creates a new factory for ReviewChunkTasks
func NewReviewChunkTaskFactory(
	reviewFiles ReviewFileUpdater,
	content ContentGenerator,
	synthesizer synthesis.Synthesizer,
	config ReviewChunkConfig,
	logger *slog.Logger,
) (*ReviewChunkTaskFactory, error) {
	if reviewFiles == nil {
		return nil, ErrNilReviewFileStore
	}
	if content == nil {
		return nil, ErrNilContent
	}
	if synthesizer == nil {
		return nil, ErrNilSynthesizer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &ReviewChunkTaskFactory{
		reviewFiles: reviewFiles,
		content:     content,
		synthesizer: synthesizer,
		config:      config,
		logger:      logger.With("component", "review_chunk_task_factory"),
	}, nil
}

// CreateTask creates a new ReviewChunkTask for msg
func (f *ReviewChunkTaskFactory) CreateTask(msg ReviewChunkMessage) (Task, error) {
	return f.build(uuid.New(), msg)
}

// Rebuild restores a persisted ReviewChunkTask. It has the Factory signature.
func (f *ReviewChunkTaskFactory) Rebuild(id uuid.UUID, payload []byte) (Task, error) {
	var msg ReviewChunkMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid review chunk payload: %w", err)
	}
	return f.build(id, msg)
}

func (f *ReviewChunkTaskFactory) build(id uuid.UUID, msg ReviewChunkMessage) (Task, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &ReviewChunkTask{
		id:          id,
		msg:         msg,
		reviewFiles: f.reviewFiles,
		content:     f.content,
		synthesizer: f.synthesizer,
		config:      f.config,
		logger: f.logger.With(
			"task_type", TaskTypeReviewChunk,
			"task_id", id,
			"review_file_id", msg.ReviewFileID,
			"deck_id", msg.DeckID),
		status: TaskStatusPending,
	}, nil
}
