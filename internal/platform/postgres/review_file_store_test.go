package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewFileRowColumns = []string{
	"id", "owner_id", "deck_id", "card_ids", "card_count", "status", "status_message",
	"audio_path", "timing_marks_path", "is_listened", "last_listened_at", "created_at", "updated_at",
}

func TestPostgresReviewFileStore_Create(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresReviewFileStore(db, testLogger())

	cards := []uuid.UUID{uuid.New(), uuid.New()}
	rf, err := domain.NewReviewFile("owner-1", uuid.New(), cards)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO review_files").
		WithArgs(rf.ID.String(), "owner-1", rf.DeckID.String(), sqlmock.AnyArg(), 2, "pending",
			"Review file generation queued", nil, nil, false, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), rf))
}

func TestPostgresReviewFileStore_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresReviewFileStore(db, testLogger())

	id := uuid.New()
	cardID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM review_files WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(reviewFileRowColumns).AddRow(
			id.String(), "owner-1", uuid.NewString(), []byte(`["`+cardID.String()+`"]`), 1,
			"ready", "done", "audio/x/owner-1/t.mp3", nil, true, now, now, now))

	rf, err := s.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewFileStatusReady, rf.Status)
	assert.Equal(t, []uuid.UUID{cardID}, rf.CardIDs)
	assert.Equal(t, "audio/x/owner-1/t.mp3", rf.AudioPath)
	assert.Empty(t, rf.TimingMarksPath)
	require.NotNil(t, rf.LastListenedAt)
	assert.True(t, rf.IsListened)
}

func TestPostgresReviewFileStore_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresReviewFileStore(db, testLogger())

	mock.ExpectQuery("FROM review_files").WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrReviewFileNotFound)
}

func TestPostgresReviewFileStore_UpdateStatus(t *testing.T) {
	id := uuid.New()

	t.Run("allowed transition", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReviewFileStore(db, testLogger())

		mock.ExpectExec("UPDATE review_files\\s+SET status = \\$1").
			WithArgs("processing", "Generating audio", sqlmock.AnyArg(), id.String(),
				[]byte(`["pending","processing"]`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.UpdateStatus(context.Background(), id, domain.ReviewFileStatusProcessing, "Generating audio"))
	})

	t.Run("rejected transition", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReviewFileStore(db, testLogger())

		mock.ExpectExec("UPDATE review_files").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM review_files").
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("ready"))

		err := s.UpdateStatus(context.Background(), id, domain.ReviewFileStatusProcessing, "again")
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
		assert.ErrorContains(t, err, "ready -> processing")
	})

	t.Run("missing file", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReviewFileStore(db, testLogger())

		mock.ExpectExec("UPDATE review_files").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM review_files").
			WillReturnError(sql.ErrNoRows)

		err := s.UpdateStatus(context.Background(), id, domain.ReviewFileStatusError, "failed")
		assert.ErrorIs(t, err, store.ErrReviewFileNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		db, _ := newMockDB(t)
		s := NewPostgresReviewFileStore(db, testLogger())

		err := s.UpdateStatus(context.Background(), id, domain.ReviewFileStatus("archived"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidReviewFileStatus)
	})
}

func TestStatusesReaching(t *testing.T) {
	assert.Equal(t, []string{"pending"}, statusesReaching(domain.ReviewFileStatusPending))
	assert.Equal(t, []string{"pending", "processing"}, statusesReaching(domain.ReviewFileStatusProcessing))
	assert.Equal(t, []string{"processing", "ready"}, statusesReaching(domain.ReviewFileStatusReady))
	assert.Equal(t, []string{"pending", "processing", "error"}, statusesReaching(domain.ReviewFileStatusError))
}

func TestPostgresReviewFileStore_MarkReady(t *testing.T) {
	id := uuid.New()

	t.Run("from processing", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReviewFileStore(db, testLogger())

		mock.ExpectExec("UPDATE review_files\\s+SET status = \\$1, status_message = \\$2, audio_path = \\$3").
			WithArgs("ready", "Review file ready", "audio/a/b/c.mp3", sqlmock.AnyArg(), id.String(), "processing").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.MarkReady(context.Background(), id, "audio/a/b/c.mp3", "Review file ready"))
	})

	t.Run("from error is rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresReviewFileStore(db, testLogger())

		mock.ExpectExec("UPDATE review_files").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM review_files").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("error"))

		err := s.MarkReady(context.Background(), id, "audio/a/b/c.mp3", "Review file ready")
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})
}

func TestPostgresReviewFileStore_Paths(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresReviewFileStore(db, testLogger())
	id := uuid.New()

	mock.ExpectExec("UPDATE review_files SET timing_marks_path = \\$1").
		WithArgs("audio/a/b/t.marks", sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE review_files SET audio_path = \\$1").
		WithArgs("audio/a/b/t.mp3", sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.SetTimingMarksPath(context.Background(), id, "audio/a/b/t.marks"))
	assert.ErrorIs(t, s.SetAudioPath(context.Background(), id, "audio/a/b/t.mp3"), store.ErrReviewFileNotFound)
}

func TestPostgresReviewFileStore_ListByDeck(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresReviewFileStore(db, testLogger())
	deckID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("WHERE owner_id = \\$1 AND deck_id = \\$2").
		WithArgs("owner-1", deckID.String()).
		WillReturnRows(sqlmock.NewRows(reviewFileRowColumns).
			AddRow(uuid.NewString(), "owner-1", deckID.String(), []byte(`["`+uuid.NewString()+`"]`), 1,
				"pending", "queued", nil, nil, false, nil, now, now).
			AddRow(uuid.NewString(), "owner-1", deckID.String(), []byte(`["`+uuid.NewString()+`"]`), 1,
				"error", "failed", nil, nil, false, nil, now, now))

	files, err := s.ListByDeck(context.Background(), "owner-1", deckID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, domain.ReviewFileStatusError, files[1].Status)
}

func TestPostgresReviewFileStore_MarkListened(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresReviewFileStore(db, testLogger())
	id := uuid.New()
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("SET is_listened = TRUE").
		WithArgs(at, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.MarkListened(context.Background(), id, at))
}
