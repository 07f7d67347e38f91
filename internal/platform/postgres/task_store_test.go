package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/store"
	"github.com/phrazzld/memorai/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedTask struct {
	id      uuid.UUID
	payload []byte
}

func (t storedTask) ID() uuid.UUID                     { return t.id }
func (t storedTask) Type() string                      { return task.TaskTypeReviewChunk }
func (t storedTask) Payload() []byte                   { return t.payload }
func (t storedTask) Status() task.TaskStatus           { return task.TaskStatusPending }
func (t storedTask) Execute(ctx context.Context) error { return nil }

func TestPostgresTaskStore_SaveTask(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, testLogger())
	tk := storedTask{id: uuid.New(), payload: []byte(`{"deckId":"d"}`)}

	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(tk.id.String(), "review_chunk", []byte(`{"deckId":"d"}`), "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.SaveTask(context.Background(), tk))

	mock.ExpectExec("INSERT INTO tasks").WillReturnError(errors.New("disk full"))
	err := s.SaveTask(context.Background(), tk)
	assert.ErrorContains(t, err, "failed to save task to database")
}

func TestPostgresTaskStore_UpdateTaskStatus(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, testLogger())
	id := uuid.New()

	mock.ExpectExec("UPDATE tasks\\s+SET status = \\$1, error_message = \\$2").
		WithArgs("failed", "boom", sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tasks").
		WithArgs("completed", nil, sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusFailed, "boom"))
	// Missing tasks are a no-op
	require.NoError(t, s.UpdateTaskStatus(context.Background(), id, task.TaskStatusCompleted, ""))
}

func TestPostgresTaskStore_BeginAttempt(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresTaskStore(db, testLogger())
	id := uuid.New()

	mock.ExpectQuery("SET status = \\$1, attempts = attempts \\+ 1.+RETURNING attempts").
		WithArgs("processing", sqlmock.AnyArg(), id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(2))
	mock.ExpectQuery("RETURNING attempts").WillReturnError(sql.ErrNoRows)

	n, err := s.BeginAttempt(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.BeginAttempt(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresTaskStore_GetTasks(t *testing.T) {
	columns := []string{"id", "type", "payload", "status", "error_message", "attempts", "created_at", "updated_at"}
	now := time.Now().UTC()

	t.Run("pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, testLogger())
		id := uuid.New()

		mock.ExpectQuery("FROM tasks\\s+WHERE status = \\$1\\s+ORDER BY").
			WithArgs("pending").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(id.String(), "review_chunk", []byte(`{}`), "pending", nil, 1, now, now))

		recs, err := s.GetPendingTasks(context.Background())
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, id, recs[0].ID)
		assert.Equal(t, task.TaskStatusPending, recs[0].Status)
		assert.Equal(t, 1, recs[0].Attempts)
		assert.Empty(t, recs[0].ErrorMessage)
	})

	t.Run("processing older than", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, testLogger())

		mock.ExpectQuery("WHERE status = \\$1 AND updated_at < \\$2").
			WithArgs("processing", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(uuid.NewString(), "synthesis_completion", []byte(`{}`), "processing", "Reset", 2, now, now))

		recs, err := s.GetProcessingTasks(context.Background(), 5*time.Minute)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Reset", recs[0].ErrorMessage)
	})

	t.Run("scoped to types", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresTaskStore(db, testLogger()).ForTypes(task.TaskTypeSynthesisCompletion)

		mock.ExpectQuery("WHERE status = \\$1 AND updated_at < \\$2 AND type IN \\(SELECT jsonb_array_elements_text\\(\\$3::jsonb\\)\\)").
			WithArgs("processing", sqlmock.AnyArg(), []byte(`["synthesis_completion"]`)).
			WillReturnRows(sqlmock.NewRows(columns))

		recs, err := s.GetProcessingTasks(context.Background(), time.Minute)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
