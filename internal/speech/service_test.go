package speech_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/speech"
	"github.com/book-expert/voice-service/internal/tts"
	"github.com/book-expert/voice-service/internal/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errMockEngine  = errors.New("mock engine error")
	errMockArchive = errors.New("mock archive error")
	errMockHealth  = errors.New("mock health error")
)

// mockEngine records requests and writes a short clip to the output path.
type mockEngine struct {
	mu        sync.Mutex
	requests  []core.SynthesisRequest
	err       error
	writeNone bool
	healthErr error
}

func (m *mockEngine) Synthesize(_ context.Context, req core.SynthesisRequest) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	if m.writeNone {
		return nil
	}

	return audio.WriteSilence(req.OutputPath, 500*time.Millisecond, audio.ReferenceFormat())
}

func (m *mockEngine) HealthCheck(_ context.Context) error {
	return m.healthErr
}

func (m *mockEngine) last(t *testing.T) core.SynthesisRequest {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.requests)

	return m.requests[len(m.requests)-1]
}

// mockArchive is an in-memory core.ObjectStore.
type mockArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func (m *mockArchive) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}

	return data, nil
}

func (m *mockArchive) Upload(_ context.Context, key string, data []byte) error {
	if m.fail {
		return errMockArchive
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = data

	return nil
}

func (m *mockArchive) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)

	return nil
}

type fixture struct {
	service   *speech.Service
	engine    *mockEngine
	store     *voice.Store
	outputDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	outputDir := filepath.Join(root, "audio")
	voicesDir := filepath.Join(outputDir, "voices")

	log, err := logger.New(root, "speech-test.log")
	require.NoError(t, err)

	engine := &mockEngine{}

	store, err := voice.NewStore(voice.StoreConfig{
		VoicesDir: voicesDir,
		ClonedDir: filepath.Join(outputDir, "cloned"),
		Presets:   voice.DefaultPresets(voicesDir),
	}, engine, log)
	require.NoError(t, err)

	store.ProvisionAll(context.Background())

	resolver, err := voice.NewResolver(store, voice.DefaultFallbackID)
	require.NoError(t, err)

	service := speech.NewService(speech.Config{OutputDir: outputDir}, resolver, engine, log)
	service.MarkProvisioned()

	return &fixture{service: service, engine: engine, store: store, outputDir: outputDir}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, speech.ClampSpeed(5.0), 1e-9)
	assert.InDelta(t, 0.5, speech.ClampSpeed(-1.0), 1e-9)
	assert.InDelta(t, 1.3, speech.ClampSpeed(1.3), 1e-9)
	assert.InDelta(t, 0.1, speech.ClampTemperature(0.0), 1e-9)
	assert.InDelta(t, 1.0, speech.ClampTemperature(3.0), 1e-9)
	assert.InDelta(t, 1.0, speech.ClampRepetitionPenalty(0.2), 1e-9)
	assert.InDelta(t, 10.0, speech.ClampRepetitionPenalty(42), 1e-9)
	assert.InDelta(t, 0.1, speech.ClampTopP(0.0), 1e-9)
	assert.InDelta(t, 1.0, speech.ClampTopP(1.5), 1e-9)
}

func TestDefaultParameters_AreInRange(t *testing.T) {
	t.Parallel()

	defaults := speech.DefaultParameters()

	assert.Equal(t, defaults, defaults.Clamped())
	assert.InDelta(t, 0.65, defaults.Temperature, 1e-9)
	assert.InDelta(t, 2.0, defaults.RepetitionPenalty, 1e-9)
	assert.InDelta(t, 0.8, defaults.TopP, 1e-9)
}

func TestOutputFileName(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 9, 4, 5, 0, time.UTC)
	name := speech.OutputFileName(now)

	assert.Regexp(t, regexp.MustCompile(`^speech_[0-9a-f]{8}_20261018_090405\.wav$`), name)
	assert.NotEqual(t, name, speech.OutputFileName(now))
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", speech.Preview("short"))

	long := strings.Repeat("語", 60)
	assert.Equal(t, strings.Repeat("語", 50)+"...", speech.Preview(long))
}

func TestSynthesize_Preset(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	result, err := fx.service.Synthesize(context.Background(), speech.Request{
		Text:       "Hello there",
		Voice:      "male_deep",
		Parameters: speech.Parameters{Speed: 5.0, Temperature: 0.0, RepetitionPenalty: 2.0, TopP: 0.8},
	})
	require.NoError(t, err)

	assert.Equal(t, voice.KindPreset, result.Voice.Kind)
	assert.Equal(t, filepath.Join(fx.outputDir, result.FileName), result.AudioPath)
	assert.FileExists(t, result.AudioPath)
	assert.Equal(t, speech.DefaultLanguage, result.Language)
	assert.InDelta(t, 2.0, result.Parameters.Speed, 1e-9)
	assert.InDelta(t, 0.1, result.Parameters.Temperature, 1e-9)

	req := fx.engine.last(t)
	preset, ok := fx.store.Preset("male_deep")
	require.True(t, ok)
	assert.Equal(t, preset.AudioPath, req.ReferenceAudioPath)
	assert.Equal(t, "Hello there", req.Text)
	assert.Equal(t, "zh-cn", req.Language)
	assert.InDelta(t, 2.0, req.Speed, 1e-9)
}

func TestSynthesize_UnknownVoiceFallsBack(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	result, err := fx.service.Synthesize(context.Background(), speech.Request{
		Text:       "Hello",
		Language:   "en",
		Voice:      "nobody",
		Parameters: speech.DefaultParameters(),
	})
	require.NoError(t, err)

	assert.True(t, result.Voice.IsFallback())
	assert.True(t, strings.HasPrefix(result.Voice.DisplayName, "Fallback ("))
	assert.Equal(t, "en", result.Language)
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "   "})
	require.ErrorIs(t, err, speech.ErrEmptyInput)
}

func TestSynthesize_EngineFailure(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.engine.err = errMockEngine

	_, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "Hello"})
	require.ErrorIs(t, err, speech.ErrSynthesisFailed)
	require.ErrorIs(t, err, errMockEngine)
	assert.Contains(t, err.Error(), "mock engine error")
}

func TestSynthesize_EngineTimeout(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.engine.err = fmt.Errorf("%w: deadline", tts.ErrEngineTimeout)

	_, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "Hello"})
	require.ErrorIs(t, err, speech.ErrSynthesisTimeout)
	assert.NotErrorIs(t, err, speech.ErrSynthesisFailed)
}

func TestSynthesize_NoAudioProduced(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.engine.writeNone = true

	_, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "Hello"})
	require.ErrorIs(t, err, speech.ErrSynthesisFailed)
}

func TestSynthesize_VoiceUnavailable(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	preset, ok := fx.store.Preset("neutral")
	require.True(t, ok)
	require.NoError(t, os.Remove(preset.AudioPath))

	_, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "Hello", Voice: "neutral"})
	require.ErrorIs(t, err, voice.ErrVoiceUnavailable)
}

func TestSynthesize_Archive(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	archive := &mockArchive{objects: make(map[string][]byte)}
	fx.service.SetArchive(archive)

	result, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "Hello"})
	require.NoError(t, err)

	stored, err := archive.Download(context.Background(), result.FileName)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(result.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, onDisk, stored)
}

func TestSynthesize_ArchiveFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.service.SetArchive(&mockArchive{objects: make(map[string][]byte), fail: true})

	result, err := fx.service.Synthesize(context.Background(), speech.Request{Text: "Hello"})
	require.NoError(t, err)
	assert.FileExists(t, result.AudioPath)
}

func TestReady(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	require.NoError(t, fx.service.Ready(context.Background()))

	fx.engine.healthErr = errMockHealth
	err := fx.service.Ready(context.Background())
	require.ErrorIs(t, err, speech.ErrNotReady)
	require.ErrorIs(t, err, errMockHealth)
}

func TestReady_BeforeProvisioning(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	resolver, err := voice.NewResolver(fx.store, voice.DefaultFallbackID)
	require.NoError(t, err)

	log, err := logger.New(t.TempDir(), "speech-test.log")
	require.NoError(t, err)

	fresh := speech.NewService(speech.Config{OutputDir: fx.outputDir}, resolver, fx.engine, log)
	require.ErrorIs(t, fresh.Ready(context.Background()), speech.ErrNotReady)
}
