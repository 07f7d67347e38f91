package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/events"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/synthesis"
)

const (
	// ReadyNotificationMessage is the text of the notification created when
	// a review file becomes ready.
	ReadyNotificationMessage = "One review file is ready for review. Click to start listening."

	readyStatusMessage = "Review file is ready"
)

// Errors returned while resolving a completion event.
var (
	ErrNilNotificationStore = errors.New("notification store cannot be nil")
	ErrNilKeyResolver       = errors.New("key resolver cannot be nil")
	ErrMalformedOutputPath  = errors.New("malformed synthesis output path")
)

// ReviewFileFinalizer marks a review file ready.
type ReviewFileFinalizer interface {
	MarkReady(ctx context.Context, id uuid.UUID, audioPath, message string) error
}

// NotificationCreator persists notifications.
type NotificationCreator interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// KeyResolver recovers an object key from its URI.
type KeyResolver interface {
	KeyFromURI(uri string) (string, error)
}

// ReviewLink returns the player link for a review file.
func ReviewLink(reviewFileID uuid.UUID) string {
	return "/review/play/" + reviewFileID.String()
}

// ParseOutputKey extracts the owner and review file id from a synthesis
// output key shaped <prefix>/<reviewFileID>/<ownerID>/<file>.
func ParseOutputKey(key string) (ownerID string, reviewFileID uuid.UUID, err error) {
	segments := strings.Split(strings.Trim(key, "/"), "/")
	if len(segments) < 3 {
		return "", uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedOutputPath, key)
	}

	ownerID = segments[len(segments)-2]
	if ownerID == "" {
		return "", uuid.Nil, fmt.Errorf("%w: empty owner in %q", ErrMalformedOutputPath, key)
	}

	reviewFileID, err = uuid.Parse(segments[len(segments)-3])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: %q: %v", ErrMalformedOutputPath, key, err)
	}
	return ownerID, reviewFileID, nil
}

// SynthesisCompletionTask finalizes a review file when its audio synthesis
// finishes. Failures are logged and never returned: redelivering a
// malformed completion cannot fix it.
type SynthesisCompletionTask struct {
	id            uuid.UUID
	event         synthesis.CompletionEvent
	reviewFiles   ReviewFileFinalizer
	notifications NotificationCreator
	keys          KeyResolver
	logger        *slog.Logger
	status        TaskStatus
}

// ID returns the task's unique identifier
func (t *SynthesisCompletionTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *SynthesisCompletionTask) Type() string {
	return TaskTypeSynthesisCompletion
}

// Payload returns the completion event as JSON
func (t *SynthesisCompletionTask) Payload() []byte {
	data, err := json.Marshal(t.event)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *SynthesisCompletionTask) Status() TaskStatus {
	return t.status
}

// Execute marks the review file ready and notifies its owner.
func (t *SynthesisCompletionTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	log := logger.FromContextOrDefault(ctx, t.logger).With(
		"synthesis_task_id", t.event.TaskID,
		"output_uri", t.event.OutputURI)

	// Always completes; see the type comment.
	defer func() { t.status = TaskStatusCompleted }()

	if t.event.TaskStatus != synthesis.TaskStatusCompleted {
		log.WarnContext(ctx, "synthesis did not complete, skipping",
			"synthesis_status", t.event.TaskStatus)
		return nil
	}

	key, err := t.keys.KeyFromURI(t.event.OutputURI)
	if err != nil {
		log.ErrorContext(ctx, "cannot resolve output key", "error", err)
		return nil
	}

	ownerID, rfID, err := ParseOutputKey(key)
	if err != nil {
		log.ErrorContext(ctx, "cannot parse output key", "error", err)
		return nil
	}
	log = log.With("review_file_id", rfID)

	if err := t.reviewFiles.MarkReady(ctx, rfID, key, readyStatusMessage); err != nil {
		log.ErrorContext(ctx, "failed to mark review file ready", "error", err)
		return nil
	}

	n, err := domain.NewNotification(ownerID, ReadyNotificationMessage, ReviewLink(rfID))
	if err != nil {
		log.ErrorContext(ctx, "failed to build notification", "error", err)
		return nil
	}
	if err := t.notifications.Create(ctx, n); err != nil {
		log.ErrorContext(ctx, "failed to create notification", "error", err)
		return nil
	}

	log.InfoContext(ctx, "review file ready", "notification_id", n.ID)
	return nil
}

// SynthesisCompletionTaskFactory creates SynthesisCompletionTask instances
type SynthesisCompletionTaskFactory struct {
	reviewFiles   ReviewFileFinalizer
	notifications NotificationCreator
	keys          KeyResolver
	logger        *slog.Logger
}

// NewSynthesisCompletionTaskFactory creates a new factory for SynthesisCompletionTasks
func NewSynthesisCompletionTaskFactory(
	reviewFiles ReviewFileFinalizer,
	notifications NotificationCreator,
	keys KeyResolver,
	logger *slog.Logger,
) (*SynthesisCompletionTaskFactory, error) {
	if reviewFiles == nil {
		return nil, ErrNilReviewFileStore
	}
	if notifications == nil {
		return nil, ErrNilNotificationStore
	}
	if keys == nil {
		return nil, ErrNilKeyResolver
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &SynthesisCompletionTaskFactory{
		reviewFiles:   reviewFiles,
		notifications: notifications,
		keys:          keys,
		logger:        logger.With("component", "synthesis_completion_task_factory"),
	}, nil
}

// FromEvent builds a task from a completion event. It has the
// EventTaskFactory signature.
func (f *SynthesisCompletionTaskFactory) FromEvent(event *events.Event) (Task, error) {
	return f.Rebuild(uuid.New(), event.Payload)
}

// Rebuild restores a persisted SynthesisCompletionTask. It has the Factory signature.
func (f *SynthesisCompletionTaskFactory) Rebuild(id uuid.UUID, payload []byte) (Task, error) {
	var event synthesis.CompletionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid synthesis completion payload: %w", err)
	}
	return &SynthesisCompletionTask{
		id:            id,
		event:         event,
		reviewFiles:   f.reviewFiles,
		notifications: f.notifications,
		keys:          f.keys,
		logger: f.logger.With(
			"task_type", TaskTypeSynthesisCompletion,
			"task_id", id),
		status: TaskStatusPending,
	}, nil
}
