package review_generation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/store"
	"github.com/phrazzld/memorai/internal/task"
)

// Response messages.
const (
	MessageInProgress     = "Review generation already in progress for this deck"
	MessageNotEnoughCards = "Not enough cards to generate a review"
)

func defaultClock() time.Time {
	return time.Now()
}

// Result is the outcome of a dispatch, shaped as an HTTP response.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	ChunkCount int    `json:"chunk_count"`
}

// ChunkTaskFactory creates review_chunk tasks.
type ChunkTaskFactory interface {
	CreateTask(msg task.ReviewChunkMessage) (task.Task, error)
}

// DispatcherConfig holds the chunk bounds.
type DispatcherConfig struct {
	MinChunkSize int
	MaxChunkSize int
}

// Dispatcher starts review generation for a deck.
type Dispatcher struct {
	db          *sql.DB
	lock        *DeckLock
	selector    *CardSelector
	cards       store.CardStore
	reviewFiles store.ReviewFileStore
	tasks       ChunkTaskFactory
	submitter   task.Submitter
	config      DispatcherConfig
	now         Clock
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	db *sql.DB,
	lock *DeckLock,
	selector *CardSelector,
	cards store.CardStore,
	reviewFiles store.ReviewFileStore,
	tasks ChunkTaskFactory,
	submitter task.Submitter,
	config DispatcherConfig,
	now Clock,
	logger *slog.Logger,
) *Dispatcher {
	if db == nil {
		panic("db cannot be nil")
	}
	if config.MinChunkSize < 1 {
		config.MinChunkSize = DefaultMinChunkSize
	}
	if config.MaxChunkSize < config.MinChunkSize {
		config.MaxChunkSize = max(DefaultMaxChunkSize, config.MinChunkSize)
	}
	if now == nil {
		now = defaultClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		db:          db,
		lock:        lock,
		selector:    selector,
		cards:       cards,
		reviewFiles: reviewFiles,
		tasks:       tasks,
		submitter:   submitter,
		config:      config,
		now:         now,
		logger:      logger.With("component", "review_dispatcher"),
	}
}

// Start runs a dispatch for deckID on behalf of requesterID. The deck lock
// is released on every path once acquired.
func (d *Dispatcher) Start(ctx context.Context, deckID uuid.UUID, requesterID string) Result {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		"deck_id", deckID,
		"requester_id", requesterID)

	acquired, err := d.lock.Acquire(ctx, deckID)
	if err != nil {
		log.ErrorContext(ctx, "deck lock acquisition failed", "error", err)
		return Result{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}
	if !acquired {
		log.InfoContext(ctx, "review generation already in progress")
		return Result{StatusCode: http.StatusTooManyRequests, Message: MessageInProgress}
	}
	defer d.lock.Release(context.WithoutCancel(ctx), deckID)

	count, err := d.dispatch(ctx, log, deckID, requesterID)
	if err != nil {
		log.ErrorContext(ctx, "review dispatch failed", "error", err, "queued", count)
		return Result{StatusCode: http.StatusInternalServerError, Message: err.Error(), ChunkCount: count}
	}
	if count == 0 {
		return Result{StatusCode: http.StatusBadRequest, Message: MessageNotEnoughCards}
	}

	log.InfoContext(ctx, "review generation queued", "chunk_count", count)
	return Result{
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf("Queued %d review file(s)", count),
		ChunkCount: count,
	}
}

// dispatch returns the number of chunks queued.
func (d *Dispatcher) dispatch(ctx context.Context, log *slog.Logger, deckID uuid.UUID, ownerID string) (int, error) {
	cards, err := d.selector.Select(ctx, deckID)
	if err != nil {
		return 0, err
	}
	if len(cards) < d.config.MinChunkSize {
		log.InfoContext(ctx, "not enough reviewable cards", "card_count", len(cards))
		return 0, nil
	}

	chunks := Chunk(cards, d.config.MinChunkSize, d.config.MaxChunkSize)
	today := domain.DateOf(d.now())

	for i, chunk := range chunks {
		if err := d.queueChunk(ctx, deckID, ownerID, chunk, today); err != nil {
			return i, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
	}
	return len(chunks), nil
}

func (d *Dispatcher) queueChunk(
	ctx context.Context,
	deckID uuid.UUID,
	ownerID string,
	chunk []*domain.Card,
	today time.Time,
) error {
	ids := make([]uuid.UUID, len(chunk))
	msgCards := make([]task.ChunkCard, len(chunk))
	for i, c := range chunk {
		ids[i] = c.ID
		msgCards[i] = task.ChunkCard{ID: c.ID, FrontText: c.FrontText, BackText: c.BackText}
	}

	rf, err := domain.NewReviewFile(ownerID, deckID, ids)
	if err != nil {
		return fmt.Errorf("invalid review file: %w", err)
	}

	t, err := d.tasks.CreateTask(task.ReviewChunkMessage{
		DeckID:       deckID,
		ReviewFileID: rf.ID,
		Cards:        msgCards,
		OwnerID:      ownerID,
	})
	if err != nil {
		return fmt.Errorf("failed to create review chunk task: %w", err)
	}

	err = store.RunInTransaction(ctx, d.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := d.cards.WithTx(tx).MarkIncluded(ctx, ids, today); err != nil {
			return fmt.Errorf("failed to mark cards included: %w", err)
		}
		if err := d.reviewFiles.WithTx(tx).Create(ctx, rf); err != nil {
			return fmt.Errorf("failed to create review file: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := d.submitter.Submit(ctx, t); err != nil {
		if uErr := d.reviewFiles.UpdateStatus(ctx, rf.ID, domain.ReviewFileStatusError, "failed to queue review file"); uErr != nil {
			d.logger.ErrorContext(ctx, "failed to mark unqueued review file", "review_file_id", rf.ID, "error", uErr)
		}
		return fmt.Errorf("failed to submit review chunk task: %w", err)
	}
	return nil
}
