package speech

import (
	"regexp"
	"strings"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// punctuationReplacer maps typographic punctuation the engine reads poorly onto
// plain forms. CJK punctuation is left alone.
var punctuationReplacer = strings.NewReplacer(
	"—", "-",
	"–", "-",
	"‒", "-",
	"…", "...",
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	"\u00a0", " ",
	"\u200b", "",
	"\ufeff", "",
)

// NormalizeText prepares request text for the engine: typographic punctuation
// is flattened and whitespace runs (including line breaks) become one space.
func NormalizeText(text string) string {
	text = punctuationReplacer.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
