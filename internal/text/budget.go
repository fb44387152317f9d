package text

import (
	"fmt"
	"strings"
)

// Encoder maps text to token IDs. *tokenizer.Tokenizer satisfies it.
type Encoder interface {
	TextToIDs(text, language string) ([]int, error)
}

// Chunk is one sentence-aligned piece of input and its token IDs.
type Chunk struct {
	Text string `json:"text"`
	IDs  []int  `json:"ids"`
}

// ChunkByTokens groups consecutive sentences greedily so that each chunk
// encodes to at most maxTokens IDs. A single sentence over the budget is
// emitted as its own chunk. maxTokens <= 0 encodes text as one chunk.
func ChunkByTokens(input, language string, enc Encoder, maxTokens int) ([]Chunk, error) {
	input, err := Normalize(input)
	if err != nil {
		return nil, err
	}

	sentences := []string{input}
	if maxTokens > 0 {
		sentences = splitSentences(input)
	}

	var (
		chunks  []Chunk
		pending []string
		current []int
	)

	for _, sent := range sentences {
		candidate := strings.Join(append(pending, sent), " ")

		ids, err := enc.TextToIDs(candidate, language)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", candidate, err)
		}

		if len(pending) > 0 && maxTokens > 0 && len(ids) > maxTokens {
			chunks = append(chunks, Chunk{Text: strings.Join(pending, " "), IDs: current})

			ids, err = enc.TextToIDs(sent, language)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", sent, err)
			}

			pending = pending[:0]
		}

		pending = append(pending, sent)
		current = ids
	}

	if len(pending) > 0 {
		chunks = append(chunks, Chunk{Text: strings.Join(pending, " "), IDs: current})
	}

	return chunks, nil
}
