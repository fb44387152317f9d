package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Format names a metadata layout.
type Format string

const (
	// FormatLJSpeech is "id|text|normalized text"; the normalized column wins
	// when present.
	FormatLJSpeech Format = "ljspeech"
	// FormatCoqui is "id|text|speaker|language"; speaker is ignored.
	FormatCoqui Format = "coqui"
	// FormatPlain is one utterance per line, identified by line number.
	FormatPlain Format = "plain"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported layouts.
var ErrUnknownFormat = errors.New("unknown dataset format")

// ParseFormat normalizes a format name. Empty selects FormatLJSpeech.
func ParseFormat(raw string) (Format, error) {
	f := strings.ToLower(strings.TrimSpace(raw))
	switch f {
	case "", string(FormatLJSpeech), "lj":
		return FormatLJSpeech, nil
	case string(FormatCoqui):
		return FormatCoqui, nil
	case string(FormatPlain), "txt":
		return FormatPlain, nil
	default:
		return "", fmt.Errorf("%w %q (expected %s|%s|%s)", ErrUnknownFormat, raw, FormatLJSpeech, FormatCoqui, FormatPlain)
	}
}
