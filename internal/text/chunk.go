package text

import "strings"

// sentenceTerminators end a sentence. The CJK full stops let Korean and
// Chinese input chunk the same way as Latin text.
const sentenceTerminators = ".!?。！？"

// ChunkBySentence groups consecutive sentences into chunks of at most
// maxChars bytes. A sentence longer than maxChars becomes a chunk on its own.
// maxChars <= 0 disables splitting.
func ChunkBySentence(text string, maxChars int) []string {
	if maxChars <= 0 {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)

	for _, s := range sentences {
		if current.Len() == 0 {
			current.WriteString(s)
			continue
		}

		if current.Len()+1+len(s) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(s)
		} else {
			current.WriteByte(' ')
			current.WriteString(s)
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitSentences keeps each terminator attached to its sentence and drops
// empty segments.
func splitSentences(text string) []string {
	var sentences []string

	start := 0

	for i, r := range text {
		if !strings.ContainsRune(sentenceTerminators, r) {
			continue
		}

		end := i + len(string(r))
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}

		start = end
	}

	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
