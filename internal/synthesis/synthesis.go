package synthesis

import (
	"context"
	"fmt"
	"strings"
)

// OutputFormat selects what a synthesis task produces.
type OutputFormat string

const (
	// FormatMP3 produces an MP3 audio file.
	FormatMP3 OutputFormat = "mp3"

	// FormatTimingMarks produces sentence timing marks as JSON lines.
	FormatTimingMarks OutputFormat = "marks"
)

// Extension returns the file extension used for the format's output key.
func (f OutputFormat) Extension() string {
	return "." + string(f)
}

// IsValid reports whether f is a known format.
func (f OutputFormat) IsValid() bool {
	return f == FormatMP3 || f == FormatTimingMarks
}

// TaskStatus is the state of a synthesis task.
type TaskStatus string

const (
	TaskStatusScheduled TaskStatus = "scheduled"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Request describes one synthesis task.
type Request struct {
	// Markup is the SSML to synthesize
	Markup string

	Format OutputFormat

	// KeyPrefix is the object key prefix the output is written under
	KeyPrefix string

	// Topic receives a CompletionEvent when the task finishes; empty means no event
	Topic string
}

// Validate checks the request is complete.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Markup) == "" {
		return fmt.Errorf("%w: markup cannot be empty", ErrInvalidRequest)
	}
	if !r.Format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidRequest, r.Format)
	}
	if strings.Trim(r.KeyPrefix, "/") == "" {
		return fmt.Errorf("%w: key prefix cannot be empty", ErrInvalidRequest)
	}
	return nil
}

// Task is the handle returned when a synthesis task is accepted.
type Task struct {
	ID        string
	OutputKey string
	OutputURI string
	Status    TaskStatus
}

// CompletionEvent is published on a request's topic when its task finishes.
type CompletionEvent struct {
	TaskID     string     `json:"taskId"`
	OutputURI  string     `json:"outputUri"`
	TaskStatus TaskStatus `json:"taskStatus"`
}

// Synthesizer starts asynchronous synthesis tasks.
type Synthesizer interface {
	// StartTask accepts req and returns before synthesis completes.
	StartTask(ctx context.Context, req Request) (Task, error)

	// Close waits for in-flight tasks and releases resources.
	Close() error
}

// OutputKey builds the object key for a task's output.
func OutputKey(prefix, taskID string, format OutputFormat) string {
	return strings.Trim(prefix, "/") + "/" + taskID + format.Extension()
}
