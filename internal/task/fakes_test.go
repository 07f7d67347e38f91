package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeTask is a Task whose behaviour is supplied by the test.
type fakeTask struct {
	id        uuid.UUID
	taskType  string
	payload   []byte
	executeFn func(ctx context.Context) error
}

func newFakeTask(message string) *fakeTask {
	data, _ := json.Marshal(map[string]string{"message": message})
	return &fakeTask{
		id:        uuid.New(),
		taskType:  "fake_task",
		payload:   data,
		executeFn: func(ctx context.Context) error { return nil },
	}
}

func (t *fakeTask) ID() uuid.UUID                     { return t.id }
func (t *fakeTask) Type() string                      { return t.taskType }
func (t *fakeTask) Payload() []byte                   { return t.payload }
func (t *fakeTask) Status() TaskStatus                { return TaskStatusPending }
func (t *fakeTask) Execute(ctx context.Context) error { return t.executeFn(ctx) }

// memoryTaskStore is an in-memory TaskStore.
type memoryTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*TaskRecord

	saveErr error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{records: make(map[uuid.UUID]*TaskRecord)}
}

func (s *memoryTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.records[task.ID()] = &TaskRecord{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *memoryTaskStore) put(rec TaskRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = &rec
}

func (s *memoryTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[taskID]
	if !ok {
		return nil
	}
	rec.Status = status
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *memoryTaskStore) BeginAttempt(ctx context.Context, taskID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[taskID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	rec.Status = TaskStatusProcessing
	rec.Attempts++
	rec.UpdatedAt = time.Now()
	return rec.Attempts, nil
}

func (s *memoryTaskStore) GetPendingTasks(ctx context.Context) ([]TaskRecord, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

func (s *memoryTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]TaskRecord, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *memoryTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

func (s *memoryTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TaskRecord
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(rec.UpdatedAt) <= olderThan {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memoryTaskStore) get(id uuid.UUID) TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		return *rec
	}
	return TaskRecord{}
}
