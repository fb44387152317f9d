// Package dataset reads utterance metadata files and encodes them with a
// pool of tokenizer clones.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/go-ttstok/internal/text"
)

// Sample is one utterance of a metadata file.
type Sample struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

const maxLineBytes = 1 << 20

// Load parses r in the given format. Samples without a language column get
// defaultLanguage. Blank lines are skipped; a record with empty text fails
// with its line number.
func Load(r io.Reader, format Format, defaultLanguage string) ([]Sample, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var samples []Sample

	line := 0
	for sc.Scan() {
		line++

		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		s, err := parseLine(raw, format, line, defaultLanguage)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		samples = append(samples, s)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	return samples, nil
}

func parseLine(raw string, format Format, line int, defaultLanguage string) (Sample, error) {
	s := Sample{Language: defaultLanguage}

	var utterance string

	switch format {
	case FormatPlain:
		s.ID = strconv.Itoa(line)
		utterance = raw
	case FormatLJSpeech:
		cols := strings.Split(raw, "|")
		if len(cols) < 2 {
			return Sample{}, fmt.Errorf("want id|text[|normalized], got %d columns", len(cols))
		}

		s.ID = strings.TrimSpace(cols[0])
		utterance = cols[1]

		if len(cols) > 2 && strings.TrimSpace(cols[2]) != "" {
			utterance = cols[2]
		}
	case FormatCoqui:
		cols := strings.Split(raw, "|")
		if len(cols) < 2 {
			return Sample{}, fmt.Errorf("want id|text[|speaker|language], got %d columns", len(cols))
		}

		s.ID = strings.TrimSpace(cols[0])
		utterance = cols[1]

		if len(cols) > 3 && strings.TrimSpace(cols[3]) != "" {
			s.Language = strings.TrimSpace(cols[3])
		}
	default:
		return Sample{}, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}

	normalized, err := text.NormalizeLine(utterance)
	if err != nil {
		return Sample{}, fmt.Errorf("sample %q: %w", s.ID, err)
	}

	s.Text = normalized

	return s, nil
}
