// Package phonemizer converts written text into phoneme strings. Each backend
// serves one or more languages and is constructed by name through a
// process-wide registry that built-in backends populate from init.
package phonemizer

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownBackend is returned by New for unregistered backend names.
	ErrUnknownBackend = errors.New("unknown phonemizer backend")
	// ErrUnsupportedLanguage is returned when no backend serves a language.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Backend phonemizes text for a single language.
type Backend interface {
	// Name is the registry key of the backend.
	Name() string
	// Language is the language code the backend was constructed for.
	Language() string
	// Phonemize maps text to phoneme units joined by separator. Identical
	// inputs always produce identical outputs.
	Phonemize(text, separator string) (string, error)
	// SupportedLanguages maps every servable language code to a label.
	SupportedLanguages() map[string]string
	// Version identifies the implementation revision.
	Version() string
	// IsAvailable reports whether the backend's runtime resources are present.
	IsAvailable() bool
}

// Options configures a backend at construction time.
type Options struct {
	Language     string
	Punctuations string
	KeepPuncs    bool
}

// StripPunctuation removes every rune of puncs from text.
func StripPunctuation(text, puncs string) string {
	if puncs == "" {
		return text
	}

	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(puncs, r) {
			return -1
		}

		return r
	}, text)
}

// joinUnits joins phoneme units with separator.
func joinUnits(units []string, separator string) string {
	return strings.Join(units, separator)
}
