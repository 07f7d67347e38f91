package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/phrazzld/memorai/internal/api"
	"github.com/phrazzld/memorai/internal/config"
	"github.com/phrazzld/memorai/internal/domain/srs"
	"github.com/phrazzld/memorai/internal/events"
	"github.com/phrazzld/memorai/internal/generation"
	"github.com/phrazzld/memorai/internal/objectstore"
	"github.com/phrazzld/memorai/internal/platform/gemini"
	"github.com/phrazzld/memorai/internal/platform/googletts"
	openaillm "github.com/phrazzld/memorai/internal/platform/openai"
	"github.com/phrazzld/memorai/internal/platform/postgres"
	"github.com/phrazzld/memorai/internal/service/review_feedback"
	"github.com/phrazzld/memorai/internal/service/review_generation"
	"github.com/phrazzld/memorai/internal/synthesis"
	"github.com/phrazzld/memorai/internal/task"
)

// ErrUnknownProvider is returned for an llm.provider other than gemini or openai.
var ErrUnknownProvider = errors.New("unknown LLM provider")

// application holds the long-lived dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	bucket      *objectstore.Bucket
	synthesizer synthesis.Synthesizer
	deckLock    *review_generation.DeckLock

	chunkRunner      *task.TaskRunner
	completionRunner *task.TaskRunner

	dispatcher api.ReviewDispatcher
	feedback   review_feedback.Service
}

// newApplication wires stores, generators, the synthesizer, both task
// runners and the services. Nothing is started until Run.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{config: cfg, logger: log, db: db}

	cardStore := postgres.NewPostgresCardStore(db, log)
	reviewFileStore := postgres.NewPostgresReviewFileStore(db, log)
	notificationStore := postgres.NewPostgresNotificationStore(db, log)
	lockStore := postgres.NewPostgresLockStore(db, log)
	taskStore := postgres.NewPostgresTaskStore(db, log)

	var err error
	app.bucket, err = objectstore.Open(ctx, cfg.Storage.BucketURL, log)
	if err != nil {
		return nil, err
	}

	text, err := newTextGenerator(ctx, cfg.LLM, log)
	if err != nil {
		return nil, app.abort(err)
	}
	log.Info("LLM generator initialized",
		slog.String("provider", cfg.LLM.Provider),
		slog.String("model", cfg.LLM.ModelName))

	content := generation.NewContentGenerator(text, app.bucket, generation.ContentConfig{
		StoryPromptKey:  cfg.Storage.StoryPromptKey,
		MarkupPromptKey: cfg.Storage.MarkupPromptKey,
		StoryCardLimit:  cfg.Review.StoryCardLimit,
		StoryMaxTokens:  cfg.LLM.StoryMaxTokens,
		MarkupMaxTokens: cfg.LLM.MarkupMaxTokens,
		Languages: generation.Languages{
			InstructionalName: cfg.Languages.InstructionalName,
			InstructionalCode: cfg.Languages.InstructionalCode,
			TargetName:        cfg.Languages.TargetName,
			TargetCode:        cfg.Languages.TargetCode,
		},
	}, log)

	emitter := events.NewInMemoryEventEmitter(log)

	synth, err := googletts.NewSynthesizer(ctx, app.bucket, emitter, cfg.TTS, log)
	if err != nil {
		return nil, app.abort(err)
	}
	app.synthesizer = synth

	chunkFactory, err := task.NewReviewChunkTaskFactory(reviewFileStore, content, synth, task.ReviewChunkConfig{
		AudioPrefix:     cfg.Storage.AudioPrefix,
		CompletionTopic: cfg.TTS.CompletionTopic,
	}, log)
	if err != nil {
		return nil, app.abort(err)
	}

	completionFactory, err := task.NewSynthesisCompletionTaskFactory(reviewFileStore, notificationStore, app.bucket, log)
	if err != nil {
		return nil, app.abort(err)
	}

	chunkRegistry := task.NewRegistry()
	chunkRegistry.Register(task.TaskTypeReviewChunk, chunkFactory.Rebuild)
	app.chunkRunner = task.NewTaskRunner(
		taskStore.ForTypes(task.TaskTypeReviewChunk),
		chunkRegistry,
		runnerConfig(cfg.Queue, cfg.Queue.WorkerCount),
		log.With("runner", task.TaskTypeReviewChunk),
	)

	completionRegistry := task.NewRegistry()
	completionRegistry.Register(task.TaskTypeSynthesisCompletion, completionFactory.Rebuild)
	app.completionRunner = task.NewTaskRunner(
		taskStore.ForTypes(task.TaskTypeSynthesisCompletion),
		completionRegistry,
		runnerConfig(cfg.Queue, cfg.Queue.CompletionWorkerCount),
		log.With("runner", task.TaskTypeSynthesisCompletion),
	)

	emitter.Subscribe(cfg.TTS.CompletionTopic, task.NewTaskFactoryEventHandler(
		cfg.TTS.CompletionTopic,
		completionFactory.FromEvent,
		app.completionRunner,
		log,
	))

	app.deckLock = review_generation.NewDeckLock(lockStore, cfg.Review.LockTimeout, nil, log)
	app.dispatcher = review_generation.NewDispatcher(
		db,
		app.deckLock,
		review_generation.NewCardSelector(cardStore, nil),
		cardStore,
		reviewFileStore,
		chunkFactory,
		app.chunkRunner,
		review_generation.DispatcherConfig{
			MinChunkSize: cfg.Review.MinChunkSize,
			MaxChunkSize: cfg.Review.MaxChunkSize,
		},
		nil,
		log,
	)

	app.feedback = review_feedback.NewService(
		db,
		cardStore,
		reviewFileStore,
		notificationStore,
		srs.NewDefaultService(),
		nil,
		log,
	)

	log.Info("application initialized")
	return app, nil
}

// newTextGenerator selects the LLM backend named by cfg.Provider.
func newTextGenerator(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (generation.TextGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		g, err := gemini.NewGeminiGenerator(ctx, log, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		g, err := openaillm.NewGenerator(log, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

func runnerConfig(cfg config.QueueConfig, workers int) task.TaskRunnerConfig {
	return task.TaskRunnerConfig{
		WorkerCount:  workers,
		QueueSize:    cfg.Size,
		StuckTaskAge: cfg.VisibilityTimeout,
		MaxAttempts:  cfg.MaxReceiveCount,
		RetryDelay:   cfg.RetryDelay,
	}
}

// abort releases what newApplication opened before failing.
func (app *application) abort(err error) error {
	if app.synthesizer != nil {
		_ = app.synthesizer.Close()
	}
	if app.bucket != nil {
		_ = app.bucket.Close()
	}
	return err
}

// Run starts the runners, the lock janitor and the HTTP server, and blocks
// until ctx is cancelled or the server fails. Resources are released in
// dependency order before it returns.
func (app *application) Run(ctx context.Context) error {
	// The completion runner starts first so events from recovered chunk
	// tasks always have a consumer.
	if err := app.completionRunner.Start(); err != nil {
		return fmt.Errorf("failed to start completion runner: %w", err)
	}
	if err := app.chunkRunner.Start(); err != nil {
		app.completionRunner.Stop()
		return fmt.Errorf("failed to start review chunk runner: %w", err)
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	var janitor sync.WaitGroup
	janitor.Add(1)
	go func() {
		defer janitor.Done()
		app.deckLock.RunJanitor(janitorCtx, app.config.Review.LockPurgeInterval)
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.routes(),
		ReadHeaderTimeout: app.config.Server.RequestTimeout,
	}
	serveErr := app.serve(ctx, server)

	stopJanitor()
	janitor.Wait()
	app.shutdown()

	return serveErr
}

// shutdown stops background work after the HTTP server has drained. Chunk
// workers stop before the synthesizer so no new synthesis starts; the
// synthesizer drains before the completion runner so its events are
// persisted.
func (app *application) shutdown() {
	app.chunkRunner.Stop()

	if err := app.synthesizer.Close(); err != nil {
		app.logger.Error("failed to close synthesizer", slog.String("error", err.Error()))
	}

	app.completionRunner.Stop()

	if err := app.bucket.Close(); err != nil {
		app.logger.Error("failed to close bucket", slog.String("error", err.Error()))
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
	}

	app.logger.Info("application shutdown completed")
}
