// Package core defines the collaborator interfaces of the voice service.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// SynthesisRequest holds everything the speech engine needs for one call.
// ReferenceAudioPath conditions a voice-cloning model; Model and Speaker select
// a voice on multi-speaker models and are only used when provisioning presets.
type SynthesisRequest struct {
	Text               string
	ReferenceAudioPath string
	Language           string
	OutputPath         string
	Model              string
	Speaker            string
	Speed              float64
	Temperature        float64
	RepetitionPenalty  float64
	TopP               float64
}

// Synthesizer defines the interface for a text-to-speech engine. Implementations
// write the resulting audio to req.OutputPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) error
}

// Converter normalizes an arbitrary audio file into the reference format.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}
