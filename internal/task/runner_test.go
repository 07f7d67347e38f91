package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              10,
		StuckTaskAge:           time.Second,
		StuckTaskCheckInterval: 20 * time.Millisecond,
		MaxAttempts:            3,
		RetryDelay:             10 * time.Millisecond,
	}
}

func waitForStatus(t *testing.T, store *memoryTaskStore, id uuid.UUID, status TaskStatus) TaskRecord {
	t.Helper()
	require.Eventually(t, func() bool {
		return store.get(id).Status == status
	}, 2*time.Second, 5*time.Millisecond, "task %s never reached %s", id, status)
	return store.get(id)
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	t.Run("saves then queues", func(t *testing.T) {
		t.Parallel()
		store := newMemoryTaskStore()
		runner := NewTaskRunner(store, nil, fastRunnerConfig(), setupTestLogger())

		task := newFakeTask("submit")
		require.NoError(t, runner.Submit(context.Background(), task))

		assert.Equal(t, TaskStatusPending, store.get(task.ID()).Status)
		assert.Len(t, runner.queue.tasks, 1)
	})

	t.Run("queue full", func(t *testing.T) {
		t.Parallel()
		cfg := fastRunnerConfig()
		cfg.QueueSize = 1
		runner := NewTaskRunner(newMemoryTaskStore(), nil, cfg, setupTestLogger())

		require.NoError(t, runner.Submit(context.Background(), newFakeTask("first")))
		err := runner.Submit(context.Background(), newFakeTask("second"))
		assert.ErrorIs(t, err, ErrQueueFull)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		store := newMemoryTaskStore()
		store.saveErr = errors.New("database unavailable")
		runner := NewTaskRunner(store, nil, fastRunnerConfig(), setupTestLogger())

		err := runner.Submit(context.Background(), newFakeTask("never saved"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save task")
		assert.Empty(t, runner.queue.tasks)
	})
}

func TestTaskRunner_ExecutesTask(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, nil, fastRunnerConfig(), setupTestLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	var got Delivery
	var hasLogger bool
	task := newFakeTask("run me")
	task.executeFn = func(ctx context.Context) error {
		got = DeliveryFromContext(ctx)
		hasLogger = logger.FromContextOrDefault(ctx, nil) != nil
		return nil
	}

	require.NoError(t, runner.Submit(context.Background(), task))

	rec := waitForStatus(t, store, task.ID(), TaskStatusCompleted)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, Delivery{Attempt: 1, MaxAttempts: 3}, got)
	assert.False(t, got.IsFinal())
	assert.True(t, hasLogger, "task context should carry a logger")
}

func TestTaskRunner_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, nil, fastRunnerConfig(), setupTestLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	var calls atomic.Int32
	task := newFakeTask("flaky")
	task.executeFn = func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("transient failure")
		}
		return nil
	}

	require.NoError(t, runner.Submit(context.Background(), task))

	rec := waitForStatus(t, store, task.ID(), TaskStatusCompleted)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTaskRunner_DeadLettersAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, nil, fastRunnerConfig(), setupTestLogger())

	var handled atomic.Int32
	runner.SetErrorHandler(func(task Task, err error) {
		handled.Add(1)
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	var mu sync.Mutex
	var deliveries []Delivery
	task := newFakeTask("always fails")
	task.executeFn = func(ctx context.Context) error {
		mu.Lock()
		deliveries = append(deliveries, DeliveryFromContext(ctx))
		mu.Unlock()
		return errors.New("permanent failure")
	}

	require.NoError(t, runner.Submit(context.Background(), task))

	rec := waitForStatus(t, store, task.ID(), TaskStatusFailed)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, "permanent failure", rec.ErrorMessage)
	assert.Eventually(t, func() bool { return handled.Load() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deliveries, 3)
	assert.False(t, deliveries[0].IsFinal())
	assert.False(t, deliveries[1].IsFinal())
	assert.True(t, deliveries[2].IsFinal())
}

func TestTaskRunner_Recover(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	registry := NewRegistry()

	var executed sync.Map
	registry.Register("fake_task", func(id uuid.UUID, payload []byte) (Task, error) {
		return &fakeTask{
			id:       id,
			taskType: "fake_task",
			payload:  payload,
			executeFn: func(ctx context.Context) error {
				executed.Store(id, true)
				return nil
			},
		}, nil
	})

	now := time.Now()
	pending := TaskRecord{ID: uuid.New(), Type: "fake_task", Status: TaskStatusPending, CreatedAt: now, UpdatedAt: now}
	interrupted := TaskRecord{ID: uuid.New(), Type: "fake_task", Status: TaskStatusProcessing, Attempts: 1, CreatedAt: now, UpdatedAt: now}
	exhausted := TaskRecord{ID: uuid.New(), Type: "fake_task", Status: TaskStatusProcessing, Attempts: 3, CreatedAt: now, UpdatedAt: now}
	unknown := TaskRecord{ID: uuid.New(), Type: "retired_task", Status: TaskStatusPending, CreatedAt: now, UpdatedAt: now}
	for _, rec := range []TaskRecord{pending, interrupted, exhausted, unknown} {
		store.put(rec)
	}

	runner := NewTaskRunner(store, registry, fastRunnerConfig(), setupTestLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitForStatus(t, store, pending.ID, TaskStatusCompleted)
	rec := waitForStatus(t, store, interrupted.ID, TaskStatusCompleted)
	assert.Equal(t, 2, rec.Attempts)

	assert.Equal(t, TaskStatusFailed, store.get(exhausted.ID).Status)
	assert.Equal(t, TaskStatusFailed, store.get(unknown.ID).Status)
	assert.Contains(t, store.get(unknown.ID).ErrorMessage, ErrUnknownTaskType.Error())

	_, ran := executed.Load(exhausted.ID)
	assert.False(t, ran)
}

func TestTaskRunner_RedrivesStuckTasks(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	registry := NewRegistry()
	registry.Register("fake_task", func(id uuid.UUID, payload []byte) (Task, error) {
		return &fakeTask{id: id, taskType: "fake_task", executeFn: func(ctx context.Context) error { return nil }}, nil
	})

	cfg := fastRunnerConfig()
	cfg.StuckTaskAge = 100 * time.Millisecond
	runner := NewTaskRunner(store, registry, cfg, setupTestLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	// Appears after start, so only the monitor can find it.
	old := time.Now().Add(-time.Minute)
	stuck := TaskRecord{
		ID:        uuid.New(),
		Type:      "fake_task",
		Status:    TaskStatusProcessing,
		Attempts:  1,
		CreatedAt: old,
		UpdatedAt: old,
	}
	store.put(stuck)

	rec := waitForStatus(t, store, stuck.ID, TaskStatusCompleted)
	assert.Equal(t, 2, rec.Attempts)
}

func TestTaskRunner_StopLeavesRetryPending(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	cfg := fastRunnerConfig()
	cfg.RetryDelay = time.Hour
	runner := NewTaskRunner(store, nil, cfg, setupTestLogger())
	require.NoError(t, runner.Start())

	task := newFakeTask("fails once")
	task.executeFn = func(ctx context.Context) error { return errors.New("try later") }
	require.NoError(t, runner.Submit(context.Background(), task))

	require.Eventually(t, func() bool {
		rec := store.get(task.ID())
		return rec.Attempts == 1 && rec.Status == TaskStatusPending
	}, 2*time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop while a retry was scheduled")
	}

	assert.Equal(t, TaskStatusPending, store.get(task.ID()).Status)
}

func TestDeliveryFromContext_Default(t *testing.T) {
	d := DeliveryFromContext(context.Background())
	assert.Equal(t, Delivery{Attempt: 1, MaxAttempts: 1}, d)
	assert.True(t, d.IsFinal())
}

func TestRegistry_Build(t *testing.T) {
	registry := NewRegistry()
	registry.Register("fake_task", func(id uuid.UUID, payload []byte) (Task, error) {
		if len(payload) == 0 {
			return nil, errors.New("empty payload")
		}
		return &fakeTask{id: id, taskType: "fake_task", payload: payload}, nil
	})

	id := uuid.New()
	task, err := registry.Build(TaskRecord{ID: id, Type: "fake_task", Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, id, task.ID())

	_, err = registry.Build(TaskRecord{ID: id, Type: "fake_task"})
	assert.ErrorContains(t, err, "empty payload")

	_, err = registry.Build(TaskRecord{ID: id, Type: "other"})
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestTaskRunner_RetryWaitsForFullQueue(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	cfg := fastRunnerConfig()
	cfg.WorkerCount = 1
	cfg.QueueSize = 1
	cfg.RetryDelay = 150 * time.Millisecond
	runner := NewTaskRunner(store, nil, cfg, setupTestLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	var flakyRuns atomic.Int32
	flaky := newFakeTask("flaky")
	flaky.executeFn = func(ctx context.Context) error {
		if flakyRuns.Add(1) == 1 {
			return errors.New("speech service unavailable")
		}
		return nil
	}
	require.NoError(t, runner.Submit(context.Background(), flaky))
	require.Eventually(t, func() bool {
		rec := store.get(flaky.ID())
		return rec.Attempts == 1 && rec.Status == TaskStatusPending
	}, time.Second, 2*time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	blocker := newFakeTask("blocker")
	blocker.executeFn = func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	require.NoError(t, runner.Submit(context.Background(), blocker))
	<-started

	filler := newFakeTask("filler")
	require.NoError(t, runner.Submit(context.Background(), filler))

	// The retry fires while the only worker is busy and the buffer is full.
	time.Sleep(cfg.RetryDelay + 100*time.Millisecond)
	assert.Equal(t, int32(1), flakyRuns.Load())
	close(release)

	rec := waitForStatus(t, store, flaky.ID(), TaskStatusCompleted)
	assert.Equal(t, 2, rec.Attempts)
	waitForStatus(t, store, filler.ID(), TaskStatusCompleted)
}
