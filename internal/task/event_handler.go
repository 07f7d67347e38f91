package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/memorai/internal/events"
)

// EventTaskFactory builds a task from an event received on a topic.
type EventTaskFactory func(event *events.Event) (Task, error)

// TaskFactoryEventHandler is a topic subscription: it turns every event it
// receives into a task and submits it to a runner.
type TaskFactoryEventHandler struct {
	topic   string
	factory EventTaskFactory
	runner  Submitter
	logger  *slog.Logger
}

// NewTaskFactoryEventHandler creates a subscription for topic that uses
// factory to create tasks and submits them to runner.
func NewTaskFactoryEventHandler(
	topic string,
	factory EventTaskFactory,
	runner Submitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		topic:   topic,
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "task_factory_event_handler", "topic", topic),
	}
}

// HandleEvent creates a task from the event and submits it for execution.
// Events published on other topics are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != h.topic {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	task, err := h.factory(event)
	if err != nil {
		h.logger.Error("failed to create task", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
