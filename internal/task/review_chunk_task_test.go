package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/memorai/internal/domain"
	"github.com/phrazzld/memorai/internal/synthesis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusUpdate struct {
	Status  domain.ReviewFileStatus
	Message string
}

// fakeReviewFiles records the writes made to a single review file and
// enforces the status transition rules.
type fakeReviewFiles struct {
	mu              sync.Mutex
	status          domain.ReviewFileStatus
	updates         []statusUpdate
	timingMarksPath string
	audioPath       string
	readyCalls      int
	updateErr       error
	readyErr        error
}

func newFakeReviewFiles() *fakeReviewFiles {
	return &fakeReviewFiles{status: domain.ReviewFileStatusPending}
}

func (f *fakeReviewFiles) UpdateStatus(_ context.Context, _ uuid.UUID, status domain.ReviewFileStatus, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if err := f.status.ValidateTransition(status); err != nil {
		return err
	}
	f.status = status
	f.updates = append(f.updates, statusUpdate{status, message})
	return nil
}

func (f *fakeReviewFiles) SetTimingMarksPath(_ context.Context, _ uuid.UUID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timingMarksPath = path
	return nil
}

func (f *fakeReviewFiles) SetAudioPath(_ context.Context, _ uuid.UUID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioPath = path
	return nil
}

func (f *fakeReviewFiles) MarkReady(_ context.Context, _ uuid.UUID, audioPath, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	if f.readyErr != nil {
		return f.readyErr
	}
	f.status = domain.ReviewFileStatusReady
	f.audioPath = audioPath
	f.updates = append(f.updates, statusUpdate{domain.ReviewFileStatusReady, message})
	return nil
}

func (f *fakeReviewFiles) current() domain.ReviewFileStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeReviewFiles) lastUpdate() statusUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

type fakeContent struct {
	mu        sync.Mutex
	sentences []string
	markup    string
	err       error
	calls     int
}

func (f *fakeContent) Generate(_ context.Context, sentences []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.sentences = sentences
	return f.markup, f.err
}

type fakeSynthesizer struct {
	mu       sync.Mutex
	requests []synthesis.Request
	err      error
}

func (f *fakeSynthesizer) StartTask(_ context.Context, req synthesis.Request) (synthesis.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return synthesis.Task{}, f.err
	}
	f.requests = append(f.requests, req)
	id := fmt.Sprintf("synth-%d", len(f.requests))
	key := synthesis.OutputKey(req.KeyPrefix, id, req.Format)
	return synthesis.Task{ID: id, OutputKey: key, OutputURI: "mem:///" + key, Status: synthesis.TaskStatusScheduled}, nil
}

func (f *fakeSynthesizer) Close() error { return nil }

func chunkMessage() ReviewChunkMessage {
	return ReviewChunkMessage{
		DeckID:       uuid.New(),
		ReviewFileID: uuid.New(),
		OwnerID:      "owner-1",
		Cards: []ChunkCard{
			{ID: uuid.New(), FrontText: "one", BackText: "uno"},
			{ID: uuid.New(), FrontText: "two", BackText: "dos"},
		},
	}
}

func newChunkFactory(
	t *testing.T,
	rf *fakeReviewFiles,
	content *fakeContent,
	synth *fakeSynthesizer,
) *ReviewChunkTaskFactory {
	t.Helper()
	f, err := NewReviewChunkTaskFactory(rf, content, synth, ReviewChunkConfig{
		AudioPrefix:     "audio",
		CompletionTopic: "review-audio-completed",
	}, setupTestLogger())
	require.NoError(t, err)
	return f
}

func TestReviewChunkTask_Success(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	content := &fakeContent{markup: "<speak><s>uno</s></speak>"}
	synth := &fakeSynthesizer{}
	msg := chunkMessage()

	task, err := newChunkFactory(t, rf, content, synth).CreateTask(msg)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeReviewChunk, task.Type())

	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, task.Status())

	assert.Equal(t, []string{"uno", "dos"}, content.sentences)
	assert.Equal(t, domain.ReviewFileStatusProcessing, rf.current())
	assert.Equal(t, statusUpdate{domain.ReviewFileStatusProcessing, "Processing"}, rf.lastUpdate())

	prefix := "audio/" + msg.ReviewFileID.String() + "/owner-1"
	require.Len(t, synth.requests, 2)
	assert.Equal(t, synthesis.FormatTimingMarks, synth.requests[0].Format)
	assert.Empty(t, synth.requests[0].Topic)
	assert.Equal(t, prefix, synth.requests[0].KeyPrefix)
	assert.Equal(t, synthesis.FormatMP3, synth.requests[1].Format)
	assert.Equal(t, "review-audio-completed", synth.requests[1].Topic)

	assert.Equal(t, prefix+"/synth-1.marks", rf.timingMarksPath)
	assert.Equal(t, prefix+"/synth-2.mp3", rf.audioPath)
}

func TestReviewChunkTask_FailureKeepsProcessingUntilFinalAttempt(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	content := &fakeContent{err: errors.New("model unavailable")}
	task, err := newChunkFactory(t, rf, content, &fakeSynthesizer{}).CreateTask(chunkMessage())
	require.NoError(t, err)

	ctx := WithDelivery(context.Background(), Delivery{Attempt: 1, MaxAttempts: 3})
	err = task.Execute(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.ReviewFileStatusProcessing, rf.current())
	assert.Equal(t, "retrying: failed to generate review content: model unavailable", rf.lastUpdate().Message)

	ctx = WithDelivery(context.Background(), Delivery{Attempt: 3, MaxAttempts: 3})
	err = task.Execute(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.ReviewFileStatusError, rf.current())
	assert.Equal(t, "failed to generate review content: model unavailable", rf.lastUpdate().Message)
}

func TestReviewChunkTask_SynthesisFailure(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	synth := &fakeSynthesizer{err: synthesis.ErrSynthesizerClosed}
	task, err := newChunkFactory(t, rf, &fakeContent{markup: "m"}, synth).CreateTask(chunkMessage())
	require.NoError(t, err)

	err = task.Execute(context.Background())
	assert.ErrorIs(t, err, synthesis.ErrSynthesizerClosed)
	assert.Equal(t, domain.ReviewFileStatusError, rf.current())
}

func TestReviewChunkTask_SkipsFinishedReviewFile(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	rf.status = domain.ReviewFileStatusReady
	content := &fakeContent{markup: "m"}
	task, err := newChunkFactory(t, rf, content, &fakeSynthesizer{}).CreateTask(chunkMessage())
	require.NoError(t, err)

	require.NoError(t, task.Execute(context.Background()))
	assert.Zero(t, content.calls)
	assert.Equal(t, domain.ReviewFileStatusReady, rf.current())
}

func TestReviewChunkTask_StoreFailureIsRetried(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	rf.updateErr = errors.New("connection refused")
	content := &fakeContent{markup: "m"}
	task, err := newChunkFactory(t, rf, content, &fakeSynthesizer{}).CreateTask(chunkMessage())
	require.NoError(t, err)

	assert.Error(t, task.Execute(context.Background()))
	assert.Zero(t, content.calls)
}

func TestReviewChunkTaskFactory(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	content := &fakeContent{}
	synth := &fakeSynthesizer{}
	log := setupTestLogger()

	_, err := NewReviewChunkTaskFactory(nil, content, synth, ReviewChunkConfig{}, log)
	assert.ErrorIs(t, err, ErrNilReviewFileStore)
	_, err = NewReviewChunkTaskFactory(rf, nil, synth, ReviewChunkConfig{}, log)
	assert.ErrorIs(t, err, ErrNilContent)
	_, err = NewReviewChunkTaskFactory(rf, content, nil, ReviewChunkConfig{}, log)
	assert.ErrorIs(t, err, ErrNilSynthesizer)
	_, err = NewReviewChunkTaskFactory(rf, content, synth, ReviewChunkConfig{}, nil)
	assert.ErrorIs(t, err, ErrNilLogger)

	factory := newChunkFactory(t, rf, content, synth)

	msg := chunkMessage()
	msg.Cards = nil
	_, err = factory.CreateTask(msg)
	assert.ErrorIs(t, err, ErrEmptyChunk)

	original, err := factory.CreateTask(chunkMessage())
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(original.Payload(), &wire))
	assert.Contains(t, wire, "deckId")
	assert.Contains(t, wire, "reviewFileId")
	assert.Contains(t, wire, "ownerId")
	assert.Contains(t, wire, "cards")

	rebuilt, err := factory.Rebuild(original.ID(), original.Payload())
	require.NoError(t, err)
	assert.Equal(t, original.ID(), rebuilt.ID())
	assert.Equal(t, original.(*ReviewChunkTask).Message(), rebuilt.(*ReviewChunkTask).Message())

	_, err = factory.Rebuild(uuid.New(), []byte("{"))
	assert.Error(t, err)
}

func TestReviewChunkTask_DeadLettersThroughRunner(t *testing.T) {
	t.Parallel()

	rf := newFakeReviewFiles()
	content := &fakeContent{err: errors.New("model unavailable")}
	factory := newChunkFactory(t, rf, content, &fakeSynthesizer{})

	registry := NewRegistry()
	registry.Register(TaskTypeReviewChunk, factory.Rebuild)

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, registry, fastRunnerConfig(), setupTestLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task, err := factory.CreateTask(chunkMessage())
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), task))

	rec := waitForStatus(t, store, task.ID(), TaskStatusFailed)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, domain.ReviewFileStatusError, rf.current())

	content.mu.Lock()
	defer content.mu.Unlock()
	assert.Equal(t, 3, content.calls)
}

func TestReviewChunkMessage_OwnerMustBeOneKeySegment(t *testing.T) {
	t.Parallel()

	factory := newChunkFactory(t, newFakeReviewFiles(), &fakeContent{}, &fakeSynthesizer{})

	for _, owner := range []string{"org/alice", "..", ".", "a b"} {
		msg := chunkMessage()
		msg.OwnerID = owner
		_, err := factory.CreateTask(msg)
		assert.ErrorIs(t, err, domain.ErrInvalidOwnerID, owner)
	}

	msg := chunkMessage()
	msg.OwnerID = "alice@example.com"
	require.NoError(t, msg.Validate())

	key := synthesis.OutputKey(path.Join("audio", msg.ReviewFileID.String(), msg.OwnerID), "t1", synthesis.FormatMP3)
	owner, rfID, err := ParseOutputKey(key)
	require.NoError(t, err)
	assert.Equal(t, msg.OwnerID, owner)
	assert.Equal(t, msg.ReviewFileID, rfID)
}
