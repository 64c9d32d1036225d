package voice

import (
	"fmt"
	"os"
	"strings"
)

// Kind tells how an identifier was resolved.
type Kind string

// Resolution kinds.
const (
	KindPreset   Kind = "preset"
	KindCloned   Kind = "cloned"
	KindFallback Kind = "fallback"
)

// Resolution is the reference clip chosen for a synthesis request.
type Resolution struct {
	Identifier  string
	Kind        Kind
	AudioPath   string
	DisplayName string
}

// IsFallback reports whether the identifier did not match any voice.
func (r Resolution) IsFallback() bool {
	return r.Kind == KindFallback
}

// Resolver maps caller-supplied voice identifiers to reference clips.
type Resolver struct {
	store    *Store
	fallback Preset
}

// NewResolver creates a resolver that falls back to the preset fallbackID.
func NewResolver(store *Store, fallbackID string) (*Resolver, error) {
	fallback, ok := store.Preset(fallbackID)
	if !ok {
		return nil, fmt.Errorf("%w: fallback '%s'", ErrUnknownPreset, fallbackID)
	}

	return &Resolver{store: store, fallback: fallback}, nil
}

// Fallback returns the designated fallback preset.
func (r *Resolver) Fallback() Preset {
	return r.fallback
}

// Resolve tries, in order, an exact preset id, a file in the cloned namespace
// (with or without the .wav extension) and finally the fallback preset. The
// chosen clip is checked on disk; ErrVoiceUnavailable is returned when it is
// missing.
func (r *Resolver) Resolve(identifier string) (Resolution, error) {
	resolution := r.lookup(identifier)

	info, err := os.Stat(resolution.AudioPath)
	if err != nil || !info.Mode().IsRegular() {
		return resolution, fmt.Errorf("%w: %s (%s)", ErrVoiceUnavailable, resolution.DisplayName, resolution.AudioPath)
	}

	return resolution, nil
}

func (r *Resolver) lookup(identifier string) Resolution {
	if preset, ok := r.store.Preset(identifier); ok {
		return Resolution{
			Identifier:  identifier,
			Kind:        KindPreset,
			AudioPath:   preset.AudioPath,
			DisplayName: preset.DisplayName,
		}
	}

	for _, candidate := range clonedCandidates(identifier) {
		clone, ok := r.store.LookupCloned(candidate)
		if ok {
			return Resolution{
				Identifier:  identifier,
				Kind:        KindCloned,
				AudioPath:   clone.AudioPath,
				DisplayName: clone.DisplayName,
			}
		}
	}

	return Resolution{
		Identifier:  identifier,
		Kind:        KindFallback,
		AudioPath:   r.fallback.AudioPath,
		DisplayName: FallbackDisplayName(r.fallback),
	}
}

func clonedCandidates(identifier string) []string {
	if identifier == "" {
		return nil
	}

	if strings.HasSuffix(identifier, wavExtension) {
		return []string{identifier}
	}

	return []string{identifier, FileNameForID(identifier)}
}
