package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a persisted task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

const (
	// TaskTypeReviewChunk narrates one chunk of due cards and starts its
	// speech synthesis.
	TaskTypeReviewChunk = "review_chunk"

	// TaskTypeSynthesisCompletion records the outcome of a finished speech
	// synthesis job on its review file.
	TaskTypeSynthesisCompletion = "synthesis_completion"
)

// Task is a unit of background work. Payload is the JSON body persisted with
// the task record and used to rebuild the task after a restart.
type Task interface {
	ID() uuid.UUID
	Type() string
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// TaskRecord is the persisted form of a task. Records are turned back into
// executable tasks through a Registry.
type TaskRecord struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskQueueReader is the consuming side of a TaskQueue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskStore persists task records so that queued work survives restarts.
type TaskStore interface {
	SaveTask(ctx context.Context, task Task) error
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// BeginAttempt moves a task to processing, increments its attempt
	// counter and returns the new count.
	BeginAttempt(ctx context.Context, taskID uuid.UUID) (int, error)

	GetPendingTasks(ctx context.Context) ([]TaskRecord, error)

	// GetProcessingTasks returns processing records last updated more than
	// olderThan ago. Zero returns all of them.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]TaskRecord, error)

	WithTx(tx *sql.Tx) TaskStore
}
