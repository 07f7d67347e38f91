// Package review_feedback applies listener feedback to the cards of a
// review file and exposes the owner's review files and notifications.
package review_feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/domain/srs"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/store"
)

// CardFeedback is the listener's recall outcome for one card.
type CardFeedback struct {
	CardID  uuid.UUID            `json:"card_id"  validate:"required"`
	Outcome domain.ReviewOutcome `json:"outcome"  validate:"required,oneof=again hard good easy"`
}

// Service defines the feedback and listing operations.
type Service interface {
	// SubmitFeedback reschedules the reviewed cards and marks the review
	// file listened. All writes happen in one transaction.
	SubmitFeedback(ctx context.Context, ownerID string, reviewFileID uuid.UUID, feedback []CardFeedback) ([]*domain.Card, error)

	ListReviewFiles(ctx context.Context, ownerID string, deckID uuid.UUID) ([]*domain.ReviewFile, error)

	GetReviewFile(ctx context.Context, ownerID string, id uuid.UUID) (*domain.ReviewFile, error)

	ListNotifications(ctx context.Context, ownerID string) ([]*domain.Notification, error)

	MarkNotificationRead(ctx context.Context, ownerID string, id uuid.UUID) error
}

var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	db            *sql.DB
	cards         store.CardStore
	reviewFiles   store.ReviewFileStore
	notifications store.NotificationStore
	srsService    srs.Service
	validate      *validator.Validate
	now           func() time.Time
	logger        *slog.Logger
}

// NewService creates the feedback service. A nil clock uses time.Now.
func NewService(
	db *sql.DB,
	cards store.CardStore,
	reviewFiles store.ReviewFileStore,
	notifications store.NotificationStore,
	srsService srs.Service,
	now func() time.Time,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		db:            db,
		cards:         cards,
		reviewFiles:   reviewFiles,
		notifications: notifications,
		srsService:    srsService,
		validate:      validator.New(),
		now:           now,
		logger:        logger.With(slog.String("component", "review_feedback_service")),
	}
}

func (s *serviceImpl) SubmitFeedback(
	ctx context.Context,
	ownerID string,
	reviewFileID uuid.UUID,
	feedback []CardFeedback,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("owner_id", ownerID),
		slog.String("review_file_id", reviewFileID.String()))

	if len(feedback) == 0 {
		return nil, ErrEmptyFeedback
	}
	seen := make(map[uuid.UUID]struct{}, len(feedback))
	for i := range feedback {
		if err := s.validate.Struct(feedback[i]); err != nil {
			return nil, fmt.Errorf("%w: feedback %d: %v", domain.ErrValidation, i, err)
		}
		// One review per card; repeats would compound the schedule.
		if _, dup := seen[feedback[i].CardID]; dup {
			return nil, fmt.Errorf("%w: duplicate feedback for card %s", domain.ErrValidation, feedback[i].CardID)
		}
		seen[feedback[i].CardID] = struct{}{}
	}

	rf, err := s.GetReviewFile(ctx, ownerID, reviewFileID)
	if err != nil {
		return nil, err
	}
	if rf.Status != domain.ReviewFileStatusReady {
		log.Warn("feedback for review file that is not ready", slog.String("status", string(rf.Status)))
		return nil, ErrReviewFileNotReady
	}
	for _, fb := range feedback {
		if !rf.ContainsCard(fb.CardID) {
			log.Warn("feedback for card outside review file", slog.String("card_id", fb.CardID.String()))
			return nil, fmt.Errorf("%w: %s", ErrCardNotInReviewFile, fb.CardID)
		}
	}

	now := s.now().UTC()
	today := domain.DateOf(now)
	updated := make([]*domain.Card, 0, len(feedback))

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		for _, fb := range feedback {
			card, err := cards.GetByID(ctx, fb.CardID)
			if err != nil {
				return fmt.Errorf("failed to load card %s: %w", fb.CardID, err)
			}

			result, err := s.srsService.Update(fb.Outcome, srs.StateOf(card), today)
			if err != nil {
				return fmt.Errorf("failed to schedule card %s: %w", fb.CardID, err)
			}
			result.Apply(card)

			if err := cards.UpdateSchedule(ctx, card); err != nil {
				return fmt.Errorf("failed to update card %s: %w", fb.CardID, err)
			}
			updated = append(updated, card)
		}

		if err := s.reviewFiles.WithTx(tx).MarkListened(ctx, reviewFileID, now); err != nil {
			return fmt.Errorf("failed to mark review file listened: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to submit feedback", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("feedback submitted", slog.Int("card_count", len(updated)))
	return updated, nil
}

func (s *serviceImpl) ListReviewFiles(ctx context.Context, ownerID string, deckID uuid.UUID) ([]*domain.ReviewFile, error) {
	files, err := s.reviewFiles.ListByDeck(ctx, ownerID, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review files: %w", err)
	}
	return files, nil
}

func (s *serviceImpl) GetReviewFile(ctx context.Context, ownerID string, id uuid.UUID) (*domain.ReviewFile, error) {
	rf, err := s.reviewFiles.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrReviewFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review file: %w", err)
	}
	// Another owner's file is reported as missing.
	if rf.OwnerID != ownerID {
		return nil, ErrReviewFileNotFound
	}
	return rf, nil
}

func (s *serviceImpl) ListNotifications(ctx context.Context, ownerID string) ([]*domain.Notification, error) {
	ns, err := s.notifications.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return ns, nil
}

func (s *serviceImpl) MarkNotificationRead(ctx context.Context, ownerID string, id uuid.UUID) error {
	err := s.notifications.MarkRead(ctx, ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
