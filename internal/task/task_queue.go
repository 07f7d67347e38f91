package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// highWaterRatio is the fill level at which Enqueue starts warning.
const highWaterRatio = 0.8

// TaskQueue buffers tasks between the runner and its workers. Enqueue never
// blocks: a full buffer is reported to the caller, whose record stays in the
// store for the next recovery pass.
type TaskQueue struct {
	mu        sync.RWMutex
	tasks     chan Task
	closed    bool
	highWater int
	logger    *slog.Logger
}

func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if size < 1 {
		size = 1
	}
	return &TaskQueue{
		tasks:     make(chan Task, size),
		highWater: int(float64(size) * highWaterRatio),
		logger:    logger,
	}
}

// Enqueue buffers task for the next free worker.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
	default:
		return fmt.Errorf("%w: %d tasks buffered", ErrQueueFull, cap(q.tasks))
	}

	depth := len(q.tasks)
	if q.highWater > 0 && depth >= q.highWater {
		q.logger.Warn("task queue nearly full",
			"task_type", task.Type(),
			"depth", depth,
			"capacity", cap(q.tasks))
	} else {
		q.logger.Debug("task enqueued",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"depth", depth)
	}
	return nil
}

// EnqueueWait blocks until task is buffered, ctx is done or the queue closes.
// Callers must cancel ctx before closing the queue.
func (q *TaskQueue) EnqueueWait(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		q.logger.Debug("task enqueued after wait",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"depth", len(q.tasks))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports how many tasks are waiting for a worker.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Close stops intake. Buffered tasks are still delivered before the channel
// reports closed. Close is idempotent.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", "undelivered", len(q.tasks))
}

// GetChannel exposes the buffer to workers.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}
