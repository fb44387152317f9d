package tokenizer

// Clone returns a Tokenizer sharing the immutable vocabulary, cleaner and
// phonemizers with t but owning a fresh, empty not-found set. Clones do not
// log not-found characters; the tokenizer they are merged into does.
func (t *Tokenizer) Clone() *Tokenizer {
	c := *t
	c.notFound = nil
	c.notFoundSet = make(map[string]struct{})
	c.quiet = true

	return &c
}

// MergeNotFound appends every symbol not yet recorded, preserving order, and
// logs the new ones. Use it to fold the sets of per-worker clones back into
// one tokenizer.
func (t *Tokenizer) MergeNotFound(symbols ...string) {
	t.recordNotFound(symbols)
}

// PadBatch right-pads every sequence with padID to the length of the longest
// one. Inputs are not modified.
func PadBatch(seqs [][]int, padID int) [][]int {
	maxLen := 0
	for _, s := range seqs {
		maxLen = max(maxLen, len(s))
	}

	out := make([][]int, len(seqs))

	for i, s := range seqs {
		row := make([]int, maxLen)
		n := copy(row, s)

		for j := n; j < maxLen; j++ {
			row[j] = padID
		}

		out[i] = row
	}

	return out
}
