// Package text holds the plain-text helpers that run before tokenization:
// input normalization and sentence-aligned chunking.
package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize maps CRLF and bare CR line endings to LF, trims surrounding
// whitespace and rejects input that is left empty.
func Normalize(s string) (string, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// NormalizeLine is Normalize for single-line records: interior line breaks
// become spaces.
func NormalizeLine(s string) (string, error) {
	s, err := Normalize(s)
	if err != nil {
		return "", err
	}

	return strings.ReplaceAll(s, "\n", " "), nil
}
