// Package worker provides a NATS worker that synthesizes processed text pages.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/speech"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	defaultHandleTimeout = 5 * time.Minute
	audioKeyExtension    = ".wav"
)

var (
	// ErrTextKeyEmpty indicates an event without a text object key.
	ErrTextKeyEmpty = errors.New("text key cannot be empty")
	// ErrSubjectEmpty indicates a worker configured without a subject.
	ErrSubjectEmpty = errors.New("subject cannot be empty")
	// ErrTopPRange indicates that the TopP parameter is out of the valid range [0.0, 1.0].
	ErrTopPRange = errors.New("top_p must be between 0.0 and 1.0")
	// ErrRepetitionPenaltyRange indicates a negative repetition penalty.
	ErrRepetitionPenaltyRange = errors.New("repetition penalty must be >= 0.0")
	// ErrTemperatureRange indicates a negative temperature.
	ErrTemperatureRange = errors.New("temperature must be >= 0.0")
)

// Synthesizer is the part of speech.Service the worker depends on.
type Synthesizer interface {
	Synthesize(ctx context.Context, req speech.Request) (speech.Result, error)
}

// Config holds the worker settings.
type Config struct {
	Subject       string
	HandleTimeout time.Duration
}

// NatsWorker listens for TextProcessedEvent requests on a NATS subject and
// replies with an AudioChunkCreatedEvent.
type NatsWorker struct {
	natsConnection *nats.Conn
	cfg            Config
	store          core.ObjectStore
	synthesizer    Synthesizer
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	cfg Config,
	store core.ObjectStore,
	synthesizer Synthesizer,
	log *logger.Logger,
) (*NatsWorker, error) {
	if cfg.Subject == "" {
		return nil, ErrSubjectEmpty
	}

	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = defaultHandleTimeout
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		cfg:            cfg,
		store:          store,
		synthesizer:    synthesizer,
		log:            log,
	}, nil
}

// Run subscribes and handles messages until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.cfg.Subject, func(msg *nats.Msg) {
		w.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.cfg.Subject, err)
	}

	w.log.System("Listening for jobs on subject: %s", w.cfg.Subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(parent context.Context, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), w.cfg.HandleTimeout)
	defer cancel()

	event, err := parseEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	audioKey, err := w.processJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to process TTS job for event %s: %v", event.Header.WorkflowID, err)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = publishReply(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)

		deleteErr := w.store.Delete(ctx, audioKey)
		if deleteErr != nil {
			w.log.Warn("Failed to remove orphaned audio object '%s': %v", audioKey, deleteErr)
		}
	}
}

// processJob downloads the text, synthesizes it and uploads the audio. The
// local output is removed once it is in the object store.
func (w *NatsWorker) processJob(ctx context.Context, event *events.TextProcessedEvent) (string, error) {
	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
	}

	result, err := w.synthesizer.Synthesize(ctx, speech.Request{
		Text:        string(textData),
		Language:    "",
		Voice:       event.Voice,
		Parameters:  EventParameters(event),
		SkipArchive: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to synthesize page %d: %w", event.PageNumber, err)
	}

	defer func() {
		removeErr := os.Remove(result.AudioPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			w.log.Warn("Failed to remove local output '%s': %v", result.AudioPath, removeErr)
		}
	}()

	audioData, err := os.ReadFile(result.AudioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	audioKey := uuid.NewString() + audioKeyExtension

	err = w.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	w.log.Info("Page %d/%d of workflow %s synthesized with %s as %s",
		event.PageNumber, event.TotalPages, event.Header.WorkflowID, result.Voice.DisplayName, audioKey)

	return audioKey, nil
}

// EventParameters maps the sampling fields of an event onto speech parameters.
// Zero fields mean "unset" and take the defaults.
func EventParameters(event *events.TextProcessedEvent) speech.Parameters {
	params := speech.DefaultParameters()

	if event.Temperature > 0 {
		params.Temperature = event.Temperature
	}

	if event.RepetitionPenalty > 0 {
		params.RepetitionPenalty = event.RepetitionPenalty
	}

	if event.TopP > 0 {
		params.TopP = event.TopP
	}

	return params
}

func publishReply(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(msg *nats.Msg) (*events.TextProcessedEvent, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	err = validateEvent(&event)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// validateEvent rejects events the service cannot act on. Values inside their
// ranges are clamped later by the speech service.
func validateEvent(event *events.TextProcessedEvent) error {
	if event.TextKey == "" {
		return ErrTextKeyEmpty
	}

	if event.TopP < 0.0 || event.TopP > 1.0 {
		return fmt.Errorf("%w: got %f", ErrTopPRange, event.TopP)
	}

	if event.RepetitionPenalty < 0.0 {
		return fmt.Errorf("%w: got %f", ErrRepetitionPenaltyRange, event.RepetitionPenalty)
	}

	if event.Temperature < 0.0 {
		return fmt.Errorf("%w: got %f", ErrTemperatureRange, event.Temperature)
	}

	return nil
}
