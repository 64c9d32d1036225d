package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/core"
)

// Ingestor turns uploaded audio into registered cloned voices.
type Ingestor struct {
	store     *Store
	converter core.Converter
	target    audio.Format
	log       *logger.Logger
}

// NewIngestor creates an ingestor that normalizes uploads to the reference format.
func NewIngestor(store *Store, converter core.Converter, log *logger.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		converter: converter,
		target:    audio.ReferenceFormat(),
		log:       log,
	}
}

// Ingest stores upload under a new id derived from name, converts it to the
// reference format and registers the result.
//
// On conversion failure every work file is removed and ErrConversionFailed is
// returned. Nothing is registered, so an unconverted upload never shows up in
// the listing.
func (i *Ingestor) Ingest(ctx context.Context, upload io.Reader, name string) (ClonedVoice, error) {
	displayName := SanitizeName(name)
	id := NewVoiceID(displayName)

	rawPath := i.store.StagingPath(id, ".upload")
	convertedPath := i.store.StagingPath(id, wavExtension)

	defer removeIfExists(rawPath, i.log)

	written, err := writeUpload(rawPath, upload)
	if err != nil {
		return ClonedVoice{}, err
	}

	if written == 0 {
		return ClonedVoice{}, ErrEmptyUpload
	}

	err = i.converter.Convert(ctx, rawPath, convertedPath)
	if err != nil {
		removeIfExists(convertedPath, i.log)

		if errors.Is(err, context.DeadlineExceeded) {
			return ClonedVoice{}, fmt.Errorf("%w: %w: %w", ErrConversionFailed, ErrConversionTimeout, err)
		}

		return ClonedVoice{}, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	matches, err := audio.Matches(convertedPath, i.target)
	if err != nil || !matches {
		removeIfExists(convertedPath, i.log)

		if err == nil {
			err = fmt.Errorf("converted clip is not %d Hz mono %d-bit", i.target.SampleRate, i.target.BitDepth)
		}

		return ClonedVoice{}, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	clone, err := i.store.Register(id, displayName, convertedPath)
	if err != nil {
		removeIfExists(convertedPath, i.log)

		return ClonedVoice{}, err
	}

	i.log.Info("Registered cloned voice %s (%s)", clone.FileName, clone.DisplayName)

	return clone, nil
}

func writeUpload(path string, upload io.Reader) (int64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	written, copyErr := io.Copy(file, upload)
	closeErr := file.Close()

	if copyErr != nil {
		return written, fmt.Errorf("failed to save upload: %w", copyErr)
	}

	if closeErr != nil {
		return written, fmt.Errorf("failed to close upload file: %w", closeErr)
	}

	return written, nil
}

func removeIfExists(path string, log *logger.Logger) {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove temp file '%s': %v", path, err)
	}
}
