package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/memorai/internal/store"
)

// SQLSTATE codes mapped onto store errors.
const (
	uniqueViolationCode       = "23505"
	foreignKeyViolationCode   = "23503"
	checkViolationCode        = "23514"
	notNullViolationCode      = "23502"
	invalidTextRepresentation = "22P02"
	serializationFailureCode  = "40001"
	deadlockDetectedCode      = "40P01"
)

// MapError translates driver errors into store sentinels, keeping the
// original error in the chain. Unrecognised errors are returned as is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %s: %w", store.ErrDuplicate, pgErr.ConstraintName, err)
	case foreignKeyViolationCode, checkViolationCode:
		return fmt.Errorf("%w: constraint %s: %w", store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: column %s is required: %w", store.ErrInvalidEntity, pgErr.ColumnName, err)
	case invalidTextRepresentation:
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	case serializationFailureCode, deadlockDetectedCode:
		return fmt.Errorf("%w: %w", store.ErrTransactionFailed, err)
	}
	return err
}

// requireRow returns notFound when a statement touched no rows.
func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
