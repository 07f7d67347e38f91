package task

import (
	"context"
	"log/slog"
	"sync"
)

// ProcessFunc executes one task pulled from the queue.
type ProcessFunc func(ctx context.Context, task Task, workerID int)

// WorkerPool runs a fixed number of goroutines that drain a TaskQueueReader.
// Stop cancels the pool context and waits for running tasks to return.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	process     ProcessFunc
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WorkerPoolConfig struct {
	// WorkerCount below 1 is raised to 1.
	WorkerCount int
}

// DefaultWorkerPoolConfig matches the two concurrent chunk consumers the
// review pipeline is sized for.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// NewWorkerPool builds a stopped pool. A nil process executes tasks directly
// and only logs their failures.
func NewWorkerPool(
	taskQueue TaskQueueReader,
	config WorkerPoolConfig,
	process ProcessFunc,
	logger *slog.Logger,
) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount < 1 {
		logger.Warn("worker count below 1, using 1", "configured", config.WorkerCount)
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		process:     process,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
	if p.process == nil {
		p.process = p.execute
	}
	return p
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to finish and waits for in-flight tasks.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker processes tasks from the queue
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			// Context cancelled, stop worker
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				// Channel closed, stop worker
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			p.process(p.ctx, task, id)
		}
	}
}

func (p *WorkerPool) execute(ctx context.Context, task Task, workerID int) {
	if err := task.Execute(ctx); err != nil {
		p.logger.Error("task execution failed",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"worker_id", workerID,
			"error", err)
	}
}
