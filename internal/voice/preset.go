package voice

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// VCTKModel is the multi-speaker model used to provision the built-in presets.
const VCTKModel = "tts_models/en/vctk/vits"

// DefaultFallbackID is the preset used when an identifier resolves to nothing.
const DefaultFallbackID = "female_soft"

// Preset is a built-in reference voice. It is immutable at runtime.
type Preset struct {
	ID          string
	DisplayName string
	SourceModel string
	SpeakerTag  string
	SeedText    string
	AudioPath   string
}

// FileName returns the base name of the preset clip.
func (p Preset) FileName() string {
	return p.ID + wavExtension
}

// DefaultPresets returns the built-in presets with clips located in voicesDir.
// The order is the display order of the voices listing.
func DefaultPresets(voicesDir string) []Preset {
	presets := []Preset{
		{
			ID:          "female_soft",
			DisplayName: "女聲 - 溫柔",
			SourceModel: VCTKModel,
			SpeakerTag:  "p225",
			SeedText:    "Hello, I am a gentle and soft female voice for your text to speech application.",
		},
		{
			ID:          "female_bright",
			DisplayName: "女聲 - 活潑",
			SourceModel: VCTKModel,
			SpeakerTag:  "p234",
			SeedText:    "Hi there! I am an energetic and bright female voice ready to help you!",
		},
		{
			ID:          "male_deep",
			DisplayName: "男聲 - 深沉",
			SourceModel: VCTKModel,
			SpeakerTag:  "p226",
			SeedText:    "Greetings, I am a deep male voice with a professional and authoritative tone.",
		},
		{
			ID:          "neutral",
			DisplayName: "中性聲音",
			SourceModel: VCTKModel,
			SpeakerTag:  "p230",
			SeedText:    "Hello, I am a neutral voice suitable for general purposes and various applications.",
		},
	}

	for i := range presets {
		presets[i].AudioPath = filepath.Join(voicesDir, presets[i].FileName())
	}

	return presets
}

// FallbackDisplayName returns the label reported when resolution falls back to p,
// e.g. "Fallback (Female Soft)".
func FallbackDisplayName(p Preset) string {
	words := strings.FieldsFunc(p.ID, func(r rune) bool { return r == '_' || r == '-' })

	for i, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + word[size:]
	}

	return "Fallback (" + strings.Join(words, " ") + ")"
}
