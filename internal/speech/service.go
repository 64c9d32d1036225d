// Package speech holds the service context that turns a synthesis request into
// a generated WAV file: it resolves the voice, clamps the parameters, names the
// output and drives the engine lane.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/tts"
	"github.com/book-expert/voice-service/internal/voice"
)

const (
	outputPrefix       = "speech_"
	outputExtension    = ".wav"
	outputTimestamp    = "20060102_150405"
	previewRunes       = 50
	previewEllipsis    = "..."
	archiveTimeout     = 30 * time.Second
	errMsgNoAudioFound = "engine produced no audio file"
)

var (
	// ErrEmptyInput indicates a request without text.
	ErrEmptyInput = errors.New("no text provided")
	// ErrSynthesisFailed indicates the engine call failed.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrSynthesisTimeout indicates the engine did not answer in time. Callers may retry.
	ErrSynthesisTimeout = errors.New("speech synthesis timed out")
	// ErrNotReady indicates the service has not finished provisioning.
	ErrNotReady = errors.New("voice service is not ready")
)

// Request is one synthesis request. Empty Language and Voice take the service
// defaults; Parameters are clamped before use. SkipArchive is set by callers
// that deliver the output to the object store themselves.
type Request struct {
	Text        string
	Language    string
	Voice       string
	Parameters  Parameters
	SkipArchive bool
}

// Result describes a generated output.
type Result struct {
	FileName   string
	AudioPath  string
	Voice      voice.Resolution
	Language   string
	Parameters Parameters
}

// Config holds the service context settings.
type Config struct {
	OutputDir       string
	DefaultLanguage string
	DefaultVoice    string
}

// Service is the explicitly constructed context shared by the HTTP handlers
// and the NATS worker.
type Service struct {
	resolver    *voice.Resolver
	synth       core.Synthesizer
	cfg         Config
	archive     core.ObjectStore
	log         *logger.Logger
	provisioned atomic.Bool
	now         func() time.Time
}

// NewService creates a service context writing outputs into cfg.OutputDir.
func NewService(cfg Config, resolver *voice.Resolver, synth core.Synthesizer, log *logger.Logger) *Service {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultLanguage
	}

	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = voice.DefaultFallbackID
	}

	return &Service{
		resolver: resolver,
		synth:    synth,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// SetArchive makes the service copy every generated output into store.
func (s *Service) SetArchive(store core.ObjectStore) {
	s.archive = store
}

// SetClock replaces time.Now for output naming.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// OutputDir returns the generated-output directory.
func (s *Service) OutputDir() string {
	return s.cfg.OutputDir
}

// MarkProvisioned records that preset provisioning has completed.
func (s *Service) MarkProvisioned() {
	s.provisioned.Store(true)
}

// Ready returns nil once presets are provisioned and the engine answers its
// health check.
func (s *Service) Ready(ctx context.Context) error {
	if !s.provisioned.Load() {
		return fmt.Errorf("%w: presets are still being provisioned", ErrNotReady)
	}

	checker, ok := s.synth.(tts.HealthChecker)
	if !ok {
		return nil
	}

	err := checker.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	return nil
}

// Synthesize resolves the voice, runs the engine and returns the output.
func (s *Service) Synthesize(ctx context.Context, req Request) (Result, error) {
	text := NormalizeText(req.Text)
	if text == "" {
		return Result{}, ErrEmptyInput
	}

	language := req.Language
	if language == "" {
		language = s.cfg.DefaultLanguage
	}

	voiceID := req.Voice
	if voiceID == "" {
		voiceID = s.cfg.DefaultVoice
	}

	resolution, err := s.resolver.Resolve(voiceID)
	if err != nil {
		s.log.Error("Voice '%s' is unavailable: %v", voiceID, err)

		return Result{}, err
	}

	if resolution.IsFallback() {
		s.log.Warn("Unknown voice '%s', using %s", voiceID, resolution.DisplayName)
	}

	params := req.Parameters.Clamped()
	fileName := OutputFileName(s.now())
	outputPath := filepath.Join(s.cfg.OutputDir, fileName)

	s.log.Info("Generating speech for text: %s", Preview(text))
	s.log.Info("Using voice: %s, speed: %.2f, temperature: %.2f", resolution.DisplayName, params.Speed, params.Temperature)

	err = s.synth.Synthesize(ctx, core.SynthesisRequest{
		Text:               text,
		ReferenceAudioPath: resolution.AudioPath,
		Language:           language,
		OutputPath:         outputPath,
		Model:              "",
		Speaker:            "",
		Speed:              params.Speed,
		Temperature:        params.Temperature,
		RepetitionPenalty:  params.RepetitionPenalty,
		TopP:               params.TopP,
	})
	if err != nil {
		s.removeOutput(outputPath)
		s.log.Error("TTS generation error: %v", err)

		if errors.Is(err, tts.ErrEngineTimeout) {
			return Result{}, fmt.Errorf("%w: %w", ErrSynthesisTimeout, err)
		}

		return Result{}, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		s.removeOutput(outputPath)

		return Result{}, fmt.Errorf("%w: %s", ErrSynthesisFailed, errMsgNoAudioFound)
	}

	result := Result{
		FileName:   fileName,
		AudioPath:  outputPath,
		Voice:      resolution,
		Language:   language,
		Parameters: params,
	}

	if !req.SkipArchive {
		s.archiveOutput(ctx, result)
	}

	return result, nil
}

func (s *Service) archiveOutput(ctx context.Context, result Result) {
	if s.archive == nil {
		return
	}

	data, err := os.ReadFile(result.AudioPath)
	if err != nil {
		s.log.Warn("Failed to read output for archive '%s': %v", result.FileName, err)

		return
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	err = s.archive.Upload(archiveCtx, result.FileName, data)
	if err != nil {
		s.log.Warn("Failed to archive output '%s': %v", result.FileName, err)
	}
}

// OutputFileName returns speech_{8 hex}_{YYYYMMDD_HHMMSS}.wav for now.
func OutputFileName(now time.Time) string {
	return outputPrefix + voice.RandomSuffix() + "_" + now.Format(outputTimestamp) + outputExtension
}

// Preview shortens text to its first 50 characters for logging.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}

	return string([]rune(text)[:previewRunes]) + previewEllipsis
}

func (s *Service) removeOutput(path string) {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		s.log.Warn("Failed to remove partial output '%s': %v", path, err)
	}
}
