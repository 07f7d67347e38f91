package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubQueue implements TaskQueueReader for testing
type stubQueue struct {
	ch chan Task
}

func newStubQueue() *stubQueue {
	return &stubQueue{ch: make(chan Task, 10)}
}

func (q *stubQueue) GetChannel() <-chan Task {
	return q.ch
}

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := newStubQueue()

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 5}, nil, logger)

	assert.Equal(t, 5, pool.workerCount)
	assert.Equal(t, queue, pool.taskQueue)
	assert.NotNil(t, pool.ctx)
	assert.NotNil(t, pool.cancel)
	assert.NotNil(t, pool.process, "nil process falls back to direct execution")

	// Invalid worker counts default to 1
	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, nil, logger)
	assert.Equal(t, 1, pool.workerCount)

	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -5}, nil, logger)
	assert.Equal(t, 1, pool.workerCount)
}

func TestWorkerPool_ProcessesTasks(t *testing.T) {
	queue := newStubQueue()

	var mu sync.Mutex
	seen := map[int]int{}
	var wg sync.WaitGroup
	wg.Add(4)

	process := func(ctx context.Context, task Task, workerID int) {
		defer wg.Done()
		mu.Lock()
		seen[workerID]++
		mu.Unlock()
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, process, setupTestLogger())
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 4; i++ {
		queue.ch <- newFakeTask("work")
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks were not processed in time")
	}

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for id, n := range seen {
		assert.True(t, id >= 0 && id < 2, "unexpected worker id %d", id)
		total += n
	}
	assert.Equal(t, 4, total)
}

func TestWorkerPool_DefaultProcessExecutesTask(t *testing.T) {
	queue := newStubQueue()
	pool := NewWorkerPool(queue, DefaultWorkerPoolConfig(), nil, setupTestLogger())
	pool.Start()
	defer pool.Stop()

	var calls atomic.Int32
	done := make(chan struct{})

	ok := newFakeTask("ok")
	ok.executeFn = func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}
	failing := newFakeTask("failing")
	failing.executeFn = func(ctx context.Context) error {
		calls.Add(1)
		close(done)
		return errors.New("boom")
	}

	queue.ch <- ok
	queue.ch <- failing

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks were not executed in time")
	}

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestWorkerPool_StopsWhenChannelCloses(t *testing.T) {
	queue := newStubQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, nil, setupTestLogger())
	pool.Start()

	close(queue.ch)

	stopped := make(chan struct{})
	go func() {
		pool.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after channel close")
	}
}

func TestWorkerPool_Stop(t *testing.T) {
	queue := newStubQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, nil, setupTestLogger())
	pool.Start()

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop in time")
	}
	assert.Error(t, pool.ctx.Err())
}
