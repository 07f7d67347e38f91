package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestRunInTransaction(t *testing.T) {
	ctx := context.Background()
	errMarkFailed := errors.New("mark included failed")
	errDown := errors.New("connection reset")

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		fn      TxFn
		wantErr error
		txErr   bool
	}{
		{
			name: "commit on success",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("UPDATE cards").WillReturnResult(sqlmock.NewResult(0, 2))
				m.ExpectCommit()
			},
			fn: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "UPDATE cards SET review_inclusion_date = now()")
				return err
			},
		},
		{
			name: "rollback keeps the callback error",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback()
			},
			fn:      func(context.Context, *sql.Tx) error { return errMarkFailed },
			wantErr: errMarkFailed,
		},
		{
			name: "begin failure",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin().WillReturnError(errDown)
			},
			fn:      func(context.Context, *sql.Tx) error { return nil },
			wantErr: errDown,
			txErr:   true,
		},
		{
			name: "commit failure",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(errDown)
			},
			fn:      func(context.Context, *sql.Tx) error { return nil },
			wantErr: errDown,
			txErr:   true,
		},
		{
			name: "rollback failure is joined",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback().WillReturnError(errDown)
			},
			fn:      func(context.Context, *sql.Tx) error { return errMarkFailed },
			wantErr: errMarkFailed,
			txErr:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			tc.setup(mock)

			err := RunInTransaction(ctx, db, tc.fn)

			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, tc.txErr, errors.Is(err, ErrTransactionFailed))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransactionPanic(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
