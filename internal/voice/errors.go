// Package voice manages the reference clips that condition the speech engine.
//
// Clips live in two namespaces on disk: built-in presets, provisioned once at
// startup, and cloned voices uploaded by users. The Store owns both
// namespaces, the Resolver maps a caller-supplied identifier to a clip that
// exists, and the Ingestor turns an uploaded blob into a registered clone.
package voice

import "errors"

var (
	// ErrVoiceUnavailable indicates that not even the fallback clip exists on disk.
	ErrVoiceUnavailable = errors.New("voice reference audio is unavailable")
	// ErrConversionFailed indicates the external converter could not normalize an upload.
	ErrConversionFailed = errors.New("audio conversion failed")
	// ErrConversionTimeout indicates the converter ran past its timeout. It is
	// always wrapped together with ErrConversionFailed. Callers may retry.
	ErrConversionTimeout = errors.New("audio conversion timed out")
	// ErrListingFailed indicates the cloned-voice directory could not be read.
	ErrListingFailed = errors.New("failed to list cloned voices")
	// ErrUnknownPreset indicates a preset id outside the configured set.
	ErrUnknownPreset = errors.New("unknown voice preset")
	// ErrDuplicatePreset indicates two presets share an id.
	ErrDuplicatePreset = errors.New("duplicate voice preset id")
	// ErrNoPresets indicates the store was configured without presets.
	ErrNoPresets = errors.New("at least one voice preset is required")
	// ErrEmptyUpload indicates an upload without audio bytes.
	ErrEmptyUpload = errors.New("uploaded audio is empty")
)
