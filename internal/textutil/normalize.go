package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey concatenates the supplied parts and reduces them to a dedup
// key: NFKC-normalized, lowercased, with every rune that is not a letter,
// digit, or underscore removed. Whitespace and punctuation therefore never
// influence identity.
func NormalizeKey(parts ...string) string {
	joined := norm.NFKC.String(strings.Join(parts, ""))
	lowered := cases.Lower(language.Und).String(joined)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleCase returns a display form of value ("movie" -> "Movie").
func TitleCase(value string) string {
	// Casers carry state, so one is built per call.
	return cases.Title(language.Und).String(strings.TrimSpace(value))
}
