package tokenizer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// matcher segments text into vocabulary symbols, longest match first.
// Candidates are indexed by their first rune so each position only scans the
// symbols that could start there.
type matcher struct {
	byFirst map[rune][]string
}

func newMatcher(vocab []string) *matcher {
	m := &matcher{byFirst: make(map[rune][]string, len(vocab))}

	for _, sym := range vocab {
		r, _ := utf8.DecodeRuneInString(sym)
		m.byFirst[r] = append(m.byFirst[r], sym)
	}

	for r, cands := range m.byFirst {
		sort.SliceStable(cands, func(i, j int) bool { return len(cands[i]) > len(cands[j]) })
		m.byFirst[r] = cands
	}

	return m
}

// segment splits text into vocabulary symbols. Runes that start no symbol are
// returned in missing, one entry per occurrence, and contribute no symbol.
func (m *matcher) segment(text string) (symbols, missing []string) {
	symbols = make([]string, 0, len(text))

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		matched := false

		for _, cand := range m.byFirst[r] {
			if strings.HasPrefix(text[i:], cand) {
				symbols = append(symbols, cand)
				i += len(cand)
				matched = true

				break
			}
		}

		if !matched {
			missing = append(missing, text[i:i+size])
			i += size
		}
	}

	return symbols, missing
}
