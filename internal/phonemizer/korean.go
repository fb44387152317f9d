package phonemizer

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// KoreanName is the registry name of the Korean backend.
const KoreanName = "ko_kr_phonemizer"

// DefaultKoreanPunctuations are the punctuation marks the Korean backend
// preserves (or strips when KeepPuncs is false).
const DefaultKoreanPunctuations = "、.,[]()?!〽~『』「」【】"

const (
	hangulFirst = 0xAC00
	hangulLast  = 0xD7A3
)

func init() {
	Register(Registration{
		Name:       KoreanName,
		Languages:  []string{"ko-kr"},
		Characters: "KoreanJamo",
		New: func(opts Options) (Backend, error) {
			return NewKorean(opts)
		},
	})
}

// Korean maps Hangul syllables to their conjoining jamo. Characters outside
// the Hangul syllable block pass through unchanged.
type Korean struct {
	punctuations string
	keepPuncs    bool
}

// NewKorean returns a Korean backend. An empty Punctuations uses
// DefaultKoreanPunctuations.
func NewKorean(opts Options) (*Korean, error) {
	if opts.Language != "" && NormalizeLanguage(opts.Language) != "ko-kr" {
		return nil, fmt.Errorf("%w %q for %s", ErrUnsupportedLanguage, opts.Language, KoreanName)
	}

	puncs := opts.Punctuations
	if puncs == "" {
		puncs = DefaultKoreanPunctuations
	}

	return &Korean{punctuations: puncs, keepPuncs: opts.KeepPuncs}, nil
}

func (k *Korean) Name() string     { return KoreanName }
func (k *Korean) Language() string { return "ko-kr" }
func (k *Korean) Version() string  { return "0.0.1" }

// IsAvailable is always true: the decomposition tables are compiled in.
func (k *Korean) IsAvailable() bool { return true }

func (k *Korean) SupportedLanguages() map[string]string {
	return map[string]string{"ko-kr": "hangeul(korean)"}
}

// Phonemize decomposes every Hangul syllable of text into jamo and joins all
// resulting units with separator.
func (k *Korean) Phonemize(text, separator string) (string, error) {
	if !k.keepPuncs {
		text = StripPunctuation(text, k.punctuations)
	}

	units := make([]string, 0, utf8.RuneCountInString(text)*3)

	for _, r := range text {
		if r < hangulFirst || r > hangulLast {
			units = append(units, string(r))
			continue
		}

		for _, jamo := range norm.NFD.String(string(r)) {
			units = append(units, string(jamo))
		}
	}

	return joinUnits(units, separator), nil
}
