// Package tokenizer converts text into the integer token IDs consumed by
// speech-synthesis models and back. Encoding runs a fixed pipeline:
//
//  1. clean the text (optional, injected cleaner),
//  2. phonemize it (optional),
//  3. segment it into vocabulary symbols, dropping unknown characters,
//  4. intersperse the blank symbol (optional),
//  5. pad with BOS/EOS (optional),
//  6. map every symbol to its ID.
//
// Characters missing from the vocabulary are never an error: they are logged
// once and recorded in NotFoundCharacters.
package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/go-ttstok/internal/characters"
	"github.com/example/go-ttstok/internal/cleaner"
	"github.com/example/go-ttstok/internal/phonemizer"
)

var (
	// ErrConfiguration is returned when collaborators are missing or inconsistent.
	ErrConfiguration = errors.New("tokenizer configuration")
	// ErrUnsupportedLanguage is returned by TextToIDs for languages without a phonemizer.
	ErrUnsupportedLanguage = phonemizer.ErrUnsupportedLanguage
)

// Options wires a Tokenizer. Characters is required; Phonemizer or
// Phonemizers is required when UsePhonemes is set.
type Options struct {
	Characters  *characters.CharacterSet
	UsePhonemes bool
	// Phonemizer serves every request regardless of language.
	Phonemizer phonemizer.Backend
	// Phonemizers selects a backend by the request language.
	Phonemizers map[string]phonemizer.Backend
	TextCleaner cleaner.Func
	AddBlank    bool
	UseEOSBOS   bool
	Logger      *slog.Logger
}

// Tokenizer is not safe for concurrent use: the not-found set is mutated by
// encoding. Give each goroutine its own Clone and merge the sets afterwards.
type Tokenizer struct {
	chars       *characters.CharacterSet
	matcher     *matcher
	usePhonemes bool
	phonemizer  phonemizer.Backend
	phonemizers map[string]phonemizer.Backend
	clean       cleaner.Func
	addBlank    bool
	useEOSBOS   bool
	log         *slog.Logger
	quiet       bool

	notFound    []string
	notFoundSet map[string]struct{}
}

// New validates opts and builds a Tokenizer.
func New(opts Options) (*Tokenizer, error) {
	if opts.Characters == nil {
		return nil, fmt.Errorf("%w: character set is required", ErrConfiguration)
	}

	if opts.AddBlank && opts.Characters.Blank() == "" {
		return nil, fmt.Errorf("%w: add_blank requires a blank symbol in the character set", ErrConfiguration)
	}

	if opts.UseEOSBOS && (opts.Characters.BOS() == "" || opts.Characters.EOS() == "") {
		return nil, fmt.Errorf("%w: enable_eos_bos_chars requires bos and eos symbols in the character set", ErrConfiguration)
	}

	var byLang map[string]phonemizer.Backend

	if opts.UsePhonemes {
		if opts.Phonemizer != nil && len(opts.Phonemizers) > 0 {
			return nil, fmt.Errorf("%w: set either a single phonemizer or a per-language map, not both", ErrConfiguration)
		}

		if opts.Phonemizer == nil && len(opts.Phonemizers) == 0 {
			return nil, fmt.Errorf("%w: use_phonemes requires a phonemizer", ErrConfiguration)
		}

		if opts.Phonemizer != nil && !opts.Phonemizer.IsAvailable() {
			return nil, fmt.Errorf("%w: phonemizer %q is not available", ErrConfiguration, opts.Phonemizer.Name())
		}

		byLang = make(map[string]phonemizer.Backend, len(opts.Phonemizers))
		for lang, b := range opts.Phonemizers {
			if b == nil || !b.IsAvailable() {
				return nil, fmt.Errorf("%w: phonemizer for language %q is not available", ErrConfiguration, lang)
			}

			byLang[phonemizer.NormalizeLanguage(lang)] = b
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Tokenizer{
		chars:       opts.Characters,
		matcher:     newMatcher(opts.Characters.Vocab()),
		usePhonemes: opts.UsePhonemes,
		phonemizer:  opts.Phonemizer,
		phonemizers: byLang,
		clean:       opts.TextCleaner,
		addBlank:    opts.AddBlank,
		useEOSBOS:   opts.UseEOSBOS,
		log:         logger,
		notFoundSet: make(map[string]struct{}),
	}, nil
}

// Characters returns the vocabulary.
func (t *Tokenizer) Characters() *characters.CharacterSet { return t.chars }

// PadID returns the pad symbol ID, or -1 when the vocabulary has none.
func (t *Tokenizer) PadID() int { return t.chars.ID(t.chars.Pad()) }

// BlankID returns the blank symbol ID, or -1 when the vocabulary has none.
func (t *Tokenizer) BlankID() int { return t.chars.ID(t.chars.Blank()) }

// BOSID returns the BOS symbol ID, or -1 when the vocabulary has none.
func (t *Tokenizer) BOSID() int { return t.chars.ID(t.chars.BOS()) }

// EOSID returns the EOS symbol ID, or -1 when the vocabulary has none.
func (t *Tokenizer) EOSID() int { return t.chars.ID(t.chars.EOS()) }

// TextToIDs runs the full encoding pipeline. language selects the phonemizer
// when a per-language map was configured and is ignored otherwise. Cleaner
// errors are returned unmodified.
func (t *Tokenizer) TextToIDs(text, language string) ([]int, error) {
	if t.clean != nil {
		cleaned, err := t.clean(text)
		if err != nil {
			return nil, err
		}

		text = cleaned
	}

	if t.usePhonemes {
		backend, err := t.backendFor(language)
		if err != nil {
			return nil, err
		}

		text, err = backend.Phonemize(text, "")
		if err != nil {
			return nil, fmt.Errorf("phonemize %q text with %s: %w", language, backend.Name(), err)
		}
	}

	symbols := t.Tokenize(text)

	if t.addBlank {
		symbols = t.IntersperseBlank(symbols)
	}

	if t.useEOSBOS {
		symbols = t.PadWithBOSEOS(symbols)
	}

	return t.EncodeSymbols(symbols)
}

// IDsToText maps IDs back to symbols and concatenates them. Blank and BOS/EOS
// symbols are not removed.
func (t *Tokenizer) IDsToText(ids []int) (string, error) {
	return t.Decode(ids)
}

func (t *Tokenizer) backendFor(language string) (phonemizer.Backend, error) {
	if t.phonemizer != nil {
		return t.phonemizer, nil
	}

	b, ok := t.phonemizers[phonemizer.NormalizeLanguage(language)]
	if !ok {
		return nil, fmt.Errorf("%w %q: no phonemizer configured for this language", ErrUnsupportedLanguage, language)
	}

	return b, nil
}

// Tokenize segments text into vocabulary symbols. Characters outside the
// vocabulary are dropped and recorded.
func (t *Tokenizer) Tokenize(text string) []string {
	symbols, missing := t.matcher.segment(text)
	t.recordNotFound(missing)

	return symbols
}

// Encode segments text and maps the symbols to IDs.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	return t.EncodeSymbols(t.Tokenize(text))
}

// EncodeSymbols maps already segmented symbols to IDs.
func (t *Tokenizer) EncodeSymbols(symbols []string) ([]int, error) {
	ids := make([]int, len(symbols))

	for i, sym := range symbols {
		id, err := t.chars.CharToID(sym)
		if err != nil {
			return nil, fmt.Errorf("encode symbol %d: %w", i, err)
		}

		ids[i] = id
	}

	return ids, nil
}

// Decode maps IDs to symbols and concatenates them.
func (t *Tokenizer) Decode(ids []int) (string, error) {
	var b strings.Builder

	for _, id := range ids {
		sym, err := t.chars.IDToChar(id)
		if err != nil {
			return "", fmt.Errorf("decode: %w", err)
		}

		b.WriteString(sym)
	}

	return b.String(), nil
}

// IntersperseBlank returns symbols with the blank symbol before, between and
// after every element: [b s0 b s1 b ... b].
func (t *Tokenizer) IntersperseBlank(symbols []string) []string {
	out := make([]string, 2*len(symbols)+1)

	for i := range out {
		if i%2 == 0 {
			out[i] = t.chars.Blank()
		} else {
			out[i] = symbols[i/2]
		}
	}

	return out
}

// PadWithBOSEOS returns [bos] + symbols + [eos].
func (t *Tokenizer) PadWithBOSEOS(symbols []string) []string {
	out := make([]string, 0, len(symbols)+2)
	out = append(out, t.chars.BOS())
	out = append(out, symbols...)

	return append(out, t.chars.EOS())
}

// NotFoundCharacters returns the distinct characters dropped so far, in the
// order they were first seen.
func (t *Tokenizer) NotFoundCharacters() []string {
	return append([]string(nil), t.notFound...)
}

func (t *Tokenizer) recordNotFound(missing []string) {
	for _, ch := range missing {
		if _, seen := t.notFoundSet[ch]; seen {
			continue
		}

		t.notFoundSet[ch] = struct{}{}
		t.notFound = append(t.notFound, ch)

		if t.quiet {
			continue
		}

		t.log.Warn("character not found in the vocabulary, discarding it", slog.String("char", fmt.Sprintf("%q", ch)))
	}
}

// LogValue implements slog.LogValuer.
func (t *Tokenizer) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Bool("add_blank", t.addBlank),
		slog.Bool("use_eos_bos", t.useEOSBOS),
		slog.Bool("use_phonemes", t.usePhonemes),
		slog.Any("characters", t.chars),
	}

	if t.phonemizer != nil {
		attrs = append(attrs, slog.Group("phonemizer",
			slog.String("name", t.phonemizer.Name()),
			slog.String("language", t.phonemizer.Language()),
			slog.String("version", t.phonemizer.Version()),
		))
	}

	if len(t.phonemizers) > 0 {
		langs := make([]string, 0, len(t.phonemizers))
		for lang := range t.phonemizers {
			langs = append(langs, lang)
		}

		sort.Strings(langs)
		attrs = append(attrs, slog.Any("phonemizer_languages", langs))
	}

	if len(t.notFound) > 0 {
		attrs = append(attrs, slog.Any("not_found_characters", t.NotFoundCharacters()))
	}

	return slog.GroupValue(attrs...)
}
