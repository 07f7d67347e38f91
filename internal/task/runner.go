package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/redact"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and re-driven. It also bounds a single
	// execution of a task.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 1 minute
	StuckTaskCheckInterval time.Duration

	// MaxAttempts is how many times a task is executed before it is marked
	// failed. If zero or negative, defaults to 1.
	MaxAttempts int

	// RetryDelay is the wait before a failed task is queued again
	RetryDelay time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           5 * time.Minute,
		StuckTaskCheckInterval: time.Minute,
		MaxAttempts:            3,
		RetryDelay:             10 * time.Second,
	}
}

// TaskRunner manages background task processing. Tasks are saved to the
// store, buffered in a TaskQueue and executed by a WorkerPool. Failed tasks
// are retried until MaxAttempts is reached and then marked failed.
type TaskRunner struct {
	store      TaskStore
	registry   *Registry
	queue      *TaskQueue
	pool       *WorkerPool
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner. The registry rebuilds tasks read
// back from the store during recovery and stuck-task re-drive.
func NewTaskRunner(store TaskStore, registry *Registry, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	// Apply defaults for unset values
	if config.StuckTaskCheckInterval <= 0 {
		config.StuckTaskCheckInterval = time.Minute
	}
	if config.StuckTaskAge <= 0 {
		config.StuckTaskAge = 5 * time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1
	}
	if registry == nil {
		registry = NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &TaskRunner{
		store:      store,
		registry:   registry,
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task moved to failed after final attempt",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
	r.pool = NewWorkerPool(r.queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, r.processTask, logger)

	return r
}

// SetErrorHandler sets the function called when a task fails its final attempt
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	// Save task to database first
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	// Then add to in-memory queue
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to queue task: %w", err)
	}
	return nil
}

// Start recovers unfinished tasks and begins processing
func (r *TaskRunner) Start() error {
	// Recover unfinished tasks from previous runs
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	// Start goroutine to check for stuck tasks periodically
	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner. In-flight tasks finish;
// tasks waiting for a retry stay pending in the store.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.pool.Stop()
	r.wg.Wait()
	r.queue.Close()
}

// Recover loads any unfinished tasks from the database
func (r *TaskRunner) Recover(ctx context.Context) error {
	// Get tasks that were in "pending" state
	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Get tasks that were in "processing" state (potentially interrupted by a crash)
	processing, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, rec := range pending {
		task, ok := r.rebuild(ctx, rec)
		if !ok {
			continue
		}
		r.requeue(task, "pending")
	}

	r.redrive(ctx, processing, "Reset after recovery")

	return nil
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(ctx context.Context, task Task, workerID int) {
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	// Shutdown does not interrupt a running task; the visibility timeout does.
	ctx = context.WithoutCancel(ctx)

	// Move to processing and count the attempt
	attempt, err := r.store.BeginAttempt(ctx, task.ID())
	if err != nil {
		log.Error("failed to update task status to processing", "error", err)
		return
	}

	delivery := Delivery{Attempt: attempt, MaxAttempts: r.config.MaxAttempts}
	log = log.With("attempt", attempt, "max_attempts", delivery.MaxAttempts)
	log.Info("processing task")

	execCtx, cancel := context.WithTimeout(ctx, r.config.StuckTaskAge)
	defer cancel()
	execCtx = logger.WithLogger(WithDelivery(execCtx, delivery), log)

	err = task.Execute(execCtx)
	if err == nil {
		log.Info("task completed successfully")
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
			log.Error("failed to update task status to completed", "error", updateErr)
		}
		return
	}

	if delivery.IsFinal() {
		log.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, redact.Error(err)); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	log.Warn("task execution failed, will retry", "error", err, "retry_delay", r.config.RetryDelay)
	if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, redact.Error(err)); updateErr != nil {
		log.Error("failed to reset task status for retry", "error", updateErr)
		return
	}
	r.scheduleRetry(task)
}

// scheduleRetry queues task again after RetryDelay unless the runner stops
// first, in which case the task is picked up by the next Recover.
func (r *TaskRunner) scheduleRetry(task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(r.config.RetryDelay)
		defer timer.Stop()

		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
		}

		// A full buffer must not drop the retry: nothing else re-reads
		// pending records until the next start.
		if err := r.queue.EnqueueWait(r.ctx, task); err != nil {
			r.logger.Warn("retry not queued, left pending for recovery",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		}
	}()
}

// redrive resets processing records to pending and queues them again.
// Records that already used every attempt are marked failed.
func (r *TaskRunner) redrive(ctx context.Context, records []TaskRecord, reason string) {
	for _, rec := range records {
		if rec.Attempts >= r.config.MaxAttempts {
			r.logger.Warn("task exhausted its attempts while processing",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"attempts", rec.Attempts)
			if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed,
				"exceeded maximum attempts"); err != nil {
				r.logger.Error("failed to mark task failed", "task_id", rec.ID, "error", err)
			}
			continue
		}

		task, ok := r.rebuild(ctx, rec)
		if !ok {
			continue
		}

		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, reason); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", rec.ID,
				"task_type", rec.Type,
				"error", err)
			continue
		}

		r.requeue(task, "processing")
	}
}

// rebuild turns a record into a task. Records that cannot be rebuilt are
// marked failed so they are not read back again.
func (r *TaskRunner) rebuild(ctx context.Context, rec TaskRecord) (Task, bool) {
	task, err := r.registry.Build(rec)
	if err != nil {
		r.logger.Error("failed to rebuild task", "task_id", rec.ID, "task_type", rec.Type, "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusFailed, redact.Error(err)); updateErr != nil {
			r.logger.Error("failed to mark task failed", "task_id", rec.ID, "error", updateErr)
		}
		return nil, false
	}
	return task, true
}

func (r *TaskRunner) requeue(task Task, origin string) {
	if err := r.queue.Enqueue(task); err != nil {
		r.logger.Error("failed to requeue task",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"origin", origin,
			"error", err)
		return
	}
	r.logger.Debug("requeued task",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"origin", origin,
		"queue_depth", r.queue.Len())
}

// stuckTaskMonitor periodically checks for tasks that have been in "processing"
// state for too long and re-drives them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			stuck, err := r.store.GetProcessingTasks(r.ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuck) > 0 {
				r.logger.Info("found stuck tasks", "count", len(stuck))
				r.redrive(r.ctx, stuck, "Reset after being stuck in processing state")
			}
		}
	}
}
