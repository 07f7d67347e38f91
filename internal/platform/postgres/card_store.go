package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/store"
)

const cardColumns = `id, deck_id, owner_id, front_text, back_text, due_date,
	srs_interval, srs_ease_factor, review_inclusion_date, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// Create implements store.CardStore.Create
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		card.ID,
		card.DeckID,
		card.OwnerID,
		card.FrontText,
		card.BackText,
		card.DueDate,
		card.Interval,
		card.EaseFactor,
		card.InclusionDate,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	log.Debug("card created", slog.String("card_id", card.ID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// GetByIDs implements store.CardStore.GetByIDs
func (s *PostgresCardStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	// The id list travels as a JSON array so the query stays a single
	// parameter regardless of how many cards are requested.
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card ids: %w", err)
	}

	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE id IN (SELECT jsonb_array_elements_text($1::jsonb)::uuid)
		ORDER BY due_date, id
	`
	return s.queryCards(ctx, query, idsJSON)
}

// ListReviewable implements store.CardStore.ListReviewable
func (s *PostgresCardStore) ListReviewable(
	ctx context.Context,
	deckID uuid.UUID,
	today time.Time,
) ([]*domain.Card, error) {
	day := domain.DateOf(today)
	tomorrow := day.AddDate(0, 0, 1)

	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE deck_id = $1
		  AND due_date < $2
		  AND review_inclusion_date IS DISTINCT FROM $3
		ORDER BY due_date, id
	`
	cards, err := s.queryCards(ctx, query, deckID, tomorrow, day)
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("reviewable cards listed",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// MarkIncluded implements store.CardStore.MarkIncluded
func (s *PostgresCardStore) MarkIncluded(ctx context.Context, ids []uuid.UUID, day time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return nil
	}

	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode card ids: %w", err)
	}

	query := `
		UPDATE cards
		SET review_inclusion_date = $1, updated_at = $2
		WHERE id IN (SELECT jsonb_array_elements_text($3::jsonb)::uuid)
	`
	result, err := s.db.ExecContext(ctx, query, domain.DateOf(day), time.Now().UTC(), idsJSON)
	if err != nil {
		log.Error("failed to mark cards included",
			slog.String("error", err.Error()),
			slog.Int("count", len(ids)))
		return MapError(err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != int64(len(ids)) {
		log.Warn("some cards were not marked included",
			slog.Int("requested", len(ids)),
			slog.Int64("updated", affected))
	}

	return nil
}

// UpdateSchedule implements store.CardStore.UpdateSchedule
func (s *PostgresCardStore) UpdateSchedule(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET srs_interval = $1, srs_ease_factor = $2, due_date = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		card.Interval,
		card.EaseFactor,
		domain.DateOf(card.DueDate),
		time.Now().UTC(),
		card.ID,
	)
	if err != nil {
		log.Error("failed to update card schedule",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	if err := requireRow(result, store.ErrCardNotFound); err != nil {
		return err
	}

	log.Debug("card schedule updated",
		slog.String("card_id", card.ID.String()),
		slog.Int("interval", card.Interval),
		slog.Float64("ease_factor", card.EaseFactor))
	return nil
}

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresCardStore) queryCards(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cards", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row", slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating card rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return cards, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var inclusion sql.NullTime

	if err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.OwnerID,
		&card.FrontText,
		&card.BackText,
		&card.DueDate,
		&card.Interval,
		&card.EaseFactor,
		&inclusion,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}

	card.DueDate = domain.DateOf(card.DueDate)
	if inclusion.Valid {
		d := domain.DateOf(inclusion.Time)
		card.InclusionDate = &d
	}

	return &card, nil
}
