package voice

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	wavExtension = ".wav"
	// DefaultVoiceName replaces names that sanitize to nothing.
	DefaultVoiceName = "custom_voice"
	suffixLength     = 8
	maxNameRunes     = 64
	idSeparator      = "_"
)

// SanitizeName keeps letters, digits, spaces and underscores, trims trailing
// whitespace and replaces the remaining spaces with underscores. The result is
// capped at 64 runes. Names with no letter or digit left become DefaultVoiceName.
func SanitizeName(name string) string {
	var builder strings.Builder

	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			builder.WriteRune(r)
		}
	}

	safe := strings.TrimRight(builder.String(), " ")
	safe = strings.ReplaceAll(safe, " ", idSeparator)

	if utf8.RuneCountInString(safe) > maxNameRunes {
		safe = string([]rune(safe)[:maxNameRunes])
	}

	if strings.Trim(safe, idSeparator) == "" {
		return DefaultVoiceName
	}

	return safe
}

// RandomSuffix returns eight random lowercase hex characters.
func RandomSuffix() string {
	return uuid.NewString()[:suffixLength]
}

// NewVoiceID appends a random suffix to an already sanitized name.
func NewVoiceID(sanitizedName string) string {
	return sanitizedName + idSeparator + RandomSuffix()
}

// FileNameForID returns the clip file name of a cloned voice id.
func FileNameForID(id string) string {
	return id + wavExtension
}

// DisplayNameFromFileName strips the extension and the trailing "_suffix"
// segment: "Bob_Smith_1a2b3c4d.wav" becomes "Bob_Smith".
func DisplayNameFromFileName(fileName string) string {
	base := strings.TrimSuffix(fileName, wavExtension)

	index := strings.LastIndex(base, idSeparator)
	if index <= 0 {
		return base
	}

	return base[:index]
}

// isClonedFileName reports whether a directory entry is a cloned clip. Hidden
// files hold staging output and the index.
func isClonedFileName(name string) bool {
	return strings.HasSuffix(name, wavExtension) &&
		len(name) > len(wavExtension) &&
		!strings.HasPrefix(name, ".")
}

// isSafeFileName rejects identifiers that could escape the cloned directory.
func isSafeFileName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}

	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "\x00")
}
