// Package characters provides the immutable symbol vocabularies used by the
// tokenizer. A CharacterSet binds every symbol to its position in an ordered
// vocabulary; the same configuration always yields the same ID space so that
// trained checkpoints stay compatible.
package characters

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUnknownSymbol is returned by CharToID for symbols outside the vocabulary.
	ErrUnknownSymbol = errors.New("symbol not in vocabulary")
	// ErrOutOfRange is returned for IDs that are negative or >= the vocabulary size.
	ErrOutOfRange = errors.New("id out of vocabulary range")
)

// Specials names the reserved symbols of a vocabulary. An empty string means
// the symbol is absent.
type Specials struct {
	Pad     string
	EOS     string
	BOS     string
	Blank   string
	Unknown string
}

// CharacterSet is an ordered vocabulary. It is safe for concurrent use since
// it is never mutated after construction.
type CharacterSet struct {
	vocab    []string
	ids      map[string]int
	specials Specials
}

// NewCharacterSet builds a CharacterSet from an ordered vocabulary. Symbol IDs
// are their positions. Every non-empty reserved symbol must be in vocab.
func NewCharacterSet(vocab []string, specials Specials) (*CharacterSet, error) {
	cs := &CharacterSet{
		vocab:    append([]string(nil), vocab...),
		ids:      make(map[string]int, len(vocab)),
		specials: specials,
	}

	for i, sym := range cs.vocab {
		if sym == "" {
			return nil, fmt.Errorf("vocabulary entry %d is empty", i)
		}

		if prev, dup := cs.ids[sym]; dup {
			return nil, fmt.Errorf("duplicate vocabulary symbol %q at %d and %d", sym, prev, i)
		}

		cs.ids[sym] = i
	}

	for _, r := range []struct{ name, sym string }{
		{"pad", specials.Pad},
		{"eos", specials.EOS},
		{"bos", specials.BOS},
		{"blank", specials.Blank},
		{"unknown", specials.Unknown},
	} {
		if r.sym == "" {
			continue
		}

		if _, ok := cs.ids[r.sym]; !ok {
			return nil, fmt.Errorf("reserved %s symbol %q is not in the vocabulary", r.name, r.sym)
		}
	}

	return cs, nil
}

// CharToID returns the ID of symbol.
func (c *CharacterSet) CharToID(symbol string) (int, error) {
	id, ok := c.ids[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}

	return id, nil
}

// IDToChar returns the symbol bound to id.
func (c *CharacterSet) IDToChar(id int) (string, error) {
	if id < 0 || id >= len(c.vocab) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, id, len(c.vocab))
	}

	return c.vocab[id], nil
}

// Lookup is the non-failing form of CharToID.
func (c *CharacterSet) Lookup(symbol string) (int, bool) {
	id, ok := c.ids[symbol]
	return id, ok
}

// Vocab returns a copy of the ordered vocabulary.
func (c *CharacterSet) Vocab() []string { return append([]string(nil), c.vocab...) }

// Size returns the number of symbols.
func (c *CharacterSet) Size() int { return len(c.vocab) }

func (c *CharacterSet) Pad() string     { return c.specials.Pad }
func (c *CharacterSet) EOS() string     { return c.specials.EOS }
func (c *CharacterSet) BOS() string     { return c.specials.BOS }
func (c *CharacterSet) Blank() string   { return c.specials.Blank }
func (c *CharacterSet) Unknown() string { return c.specials.Unknown }

// Specials returns the reserved symbols.
func (c *CharacterSet) Specials() Specials { return c.specials }

// ID returns the ID of a reserved symbol, or -1 when the symbol is absent.
func (c *CharacterSet) ID(symbol string) int {
	if symbol == "" {
		return -1
	}

	id, ok := c.ids[symbol]
	if !ok {
		return -1
	}

	return id
}

// LogValue implements slog.LogValuer.
func (c *CharacterSet) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("size", len(c.vocab)),
		slog.String("pad", c.specials.Pad),
		slog.String("eos", c.specials.EOS),
		slog.String("bos", c.specials.BOS),
		slog.String("blank", c.specials.Blank),
		slog.String("unknown", c.specials.Unknown),
	)
}
