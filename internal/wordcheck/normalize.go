package wordcheck

import (
	"strings"
	"unicode"

	"github.com/DoyleJ11/wordlink-backend/internal/engine"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases and trims raw, rejecting empty or multi-word input.
func Normalize(raw string) (string, error) {
	word := strings.TrimSpace(norm.NFC.String(raw))
	if word == "" {
		return "", engine.ErrMalformedInput
	}
	if strings.IndexFunc(word, unicode.IsSpace) >= 0 {
		return "", engine.ErrMalformedInput
	}
	// Casers carry state, so each call gets its own.
	return cases.Lower(language.English).String(word), nil
}
