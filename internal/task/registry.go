package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownTaskType is returned when no factory is registered for a task type.
var ErrUnknownTaskType = errors.New("unknown task type")

// Factory rebuilds an executable task from its persisted id and payload.
type Factory func(id uuid.UUID, payload []byte) (Task, error)

// Registry maps task types to the factories that rehydrate them. The runner
// uses it for tasks it reads back from the store.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds taskType to f, replacing any earlier factory.
func (r *Registry) Register(taskType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[taskType] = f
}

// Build turns a stored record into an executable task.
func (r *Registry) Build(rec TaskRecord) (Task, error) {
	r.mu.RLock()
	f, ok := r.factories[rec.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}

	t, err := f(rec.ID, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s task %s: %w", rec.Type, rec.ID, err)
	}
	return t, nil
}
