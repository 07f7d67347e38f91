package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/memorai/internal/task"
)

var _ task.Submitter = (*MockSubmitter)(nil)

// MockSubmitter implements task.Submitter for testing. Submitted tasks are
// recorded when SubmitFn is nil.
type MockSubmitter struct {
	SubmitFn func(ctx context.Context, t task.Task) error

	DefaultError error

	mu        sync.Mutex
	submitted []task.Task
}

// Submit implements task.Submitter
func (m *MockSubmitter) Submit(ctx context.Context, t task.Task) error {
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, t)
	}
	if m.DefaultError != nil {
		return m.DefaultError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, t)
	return nil
}

// Submitted returns the tasks recorded so far.
func (m *MockSubmitter) Submitted() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Task(nil), m.submitted...)
}
