package googletts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1beta1"
	"cloud.google.com/go/texttospeech/apiv1beta1/texttospeechpb"
	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/config"
	"github.com/phrazzld/memorai/internal/events"
	"github.com/phrazzld/memorai/internal/platform/logger"
	"github.com/phrazzld/memorai/internal/synthesis"
)

// speechClient is the subset of the Text-to-Speech client used here.
type speechClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// gcpClient adapts *texttospeech.Client to speechClient.
type gcpClient struct {
	client *texttospeech.Client
}

func (c gcpClient) SynthesizeSpeech(
	ctx context.Context,
	req *texttospeechpb.SynthesizeSpeechRequest,
) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	return c.client.SynthesizeSpeech(ctx, req)
}

func (c gcpClient) Close() error {
	return c.client.Close()
}

// OutputStore receives task output.
type OutputStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	URI(key string) string
}

// Synthesizer implements synthesis.Synthesizer.
type Synthesizer struct {
	client  speechClient
	store   OutputStore
	emitter events.EventEmitter
	config  config.TTSConfig
	logger  *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ synthesis.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer dials Google Cloud Text-to-Speech using application
// default credentials.
func NewSynthesizer(
	ctx context.Context,
	store OutputStore,
	emitter events.EventEmitter,
	cfg config.TTSConfig,
	logger *slog.Logger,
) (*Synthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech client: %w", err)
	}
	return newSynthesizer(gcpClient{client: client}, store, emitter, cfg, logger), nil
}

func newSynthesizer(
	client speechClient,
	store OutputStore,
	emitter events.EventEmitter,
	cfg config.TTSConfig,
	log *slog.Logger,
) *Synthesizer {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}
	return &Synthesizer{
		client:  client,
		store:   store,
		emitter: emitter,
		config:  cfg,
		logger:  log.With("component", "google_tts_synthesizer"),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// StartTask validates req and schedules it in the background.
func (s *Synthesizer) StartTask(ctx context.Context, req synthesis.Request) (synthesis.Task, error) {
	if err := req.Validate(); err != nil {
		return synthesis.Task{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return synthesis.Task{}, synthesis.ErrSynthesizerClosed
	}

	id := uuid.New().String()
	key := synthesis.OutputKey(req.KeyPrefix, id, req.Format)
	task := synthesis.Task{
		ID:        id,
		OutputKey: key,
		OutputURI: s.store.URI(key),
		Status:    synthesis.TaskStatusScheduled,
	}

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		"synthesis_task_id", id,
		"format", req.Format,
		"output_key", key)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.TaskTimeout)
		defer cancel()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		s.run(logger.WithLogger(runCtx, log), log, task, req)
	}()

	log.InfoContext(ctx, "synthesis task scheduled")
	return task, nil
}

func (s *Synthesizer) run(ctx context.Context, log *slog.Logger, task synthesis.Task, req synthesis.Request) {
	status := synthesis.TaskStatusCompleted
	if err := s.synthesize(ctx, task.OutputKey, req); err != nil {
		status = synthesis.TaskStatusFailed
		log.ErrorContext(ctx, "synthesis task failed", "error", err)
	} else {
		log.InfoContext(ctx, "synthesis task completed")
	}

	if req.Topic == "" || s.emitter == nil {
		return
	}

	event := synthesis.CompletionEvent{
		TaskID:     task.ID,
		OutputURI:  task.OutputURI,
		TaskStatus: status,
	}
	if err := events.Publish(ctx, s.emitter, req.Topic, event); err != nil {
		log.ErrorContext(ctx, "failed to publish completion event",
			"topic", req.Topic,
			"error", err)
	}
}

func (s *Synthesizer) synthesize(ctx context.Context, key string, req synthesis.Request) error {
	switch req.Format {
	case synthesis.FormatTimingMarks:
		markup, sentences := injectSentenceMarks(req.Markup)
		resp, err := s.call(ctx, markup, true)
		if err != nil {
			return err
		}

		offsets := make(map[string]float64, len(resp.GetTimepoints()))
		for _, tp := range resp.GetTimepoints() {
			offsets[tp.GetMarkName()] = tp.GetTimeSeconds()
		}

		data, err := encodeTimingMarks(sentences, offsets)
		if err != nil {
			return fmt.Errorf("%w: %v", synthesis.ErrSynthesisFailed, err)
		}
		return s.store.Upload(ctx, key, data, "application/x-json-stream")

	case synthesis.FormatMP3:
		resp, err := s.call(ctx, ensureSpeak(req.Markup), false)
		if err != nil {
			return err
		}
		if len(resp.GetAudioContent()) == 0 {
			return fmt.Errorf("%w: empty audio content", synthesis.ErrSynthesisFailed)
		}
		return s.store.Upload(ctx, key, resp.GetAudioContent(), "audio/mpeg")
	}

	return fmt.Errorf("%w: unknown format %q", synthesis.ErrInvalidRequest, req.Format)
}

func (s *Synthesizer) call(
	ctx context.Context,
	ssml string,
	timepoints bool,
) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Ssml{Ssml: ssml},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.config.LanguageCode,
			Name:         s.config.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
			SampleRateHertz: s.config.SampleRateHertz,
		},
	}
	if timepoints {
		req.EnableTimePointing = []texttospeechpb.SynthesizeSpeechRequest_TimepointType{
			texttospeechpb.SynthesizeSpeechRequest_SSML_MARK,
		}
	}

	started := time.Now()
	resp, err := s.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", synthesis.ErrSynthesisFailed, err)
	}
	s.logger.DebugContext(ctx, "text-to-speech call completed",
		"took", time.Since(started),
		"timepoints", timepoints)
	return resp, nil
}

// Close stops accepting tasks, waits for running ones, and closes the client.
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close text-to-speech client: %w", err)
	}
	return nil
}
