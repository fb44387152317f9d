package phonemizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

// ChineseName is the registry name of the Mandarin backend.
const ChineseName = "zh_cn_phonemizer"

// DefaultChinesePunctuations are the punctuation marks the Mandarin backend
// preserves (or strips when KeepPuncs is false).
const DefaultChinesePunctuations = "、.,[]()?!〽~『』「」【】，。？！：；"

func init() {
	Register(Registration{
		Name:       ChineseName,
		Languages:  []string{"zh-cn"},
		Characters: "PinyinPhonemes",
		New: func(opts Options) (Backend, error) {
			return NewChinese(opts)
		},
	})
}

// Chinese converts Han characters to numbered-tone pinyin split into initial,
// final and tone units.
type Chinese struct {
	punctuations string
	keepPuncs    bool
	args         pinyin.Args
}

// NewChinese returns a Mandarin backend.
func NewChinese(opts Options) (*Chinese, error) {
	if opts.Language != "" && NormalizeLanguage(opts.Language) != "zh-cn" {
		return nil, fmt.Errorf("%w %q for %s", ErrUnsupportedLanguage, opts.Language, ChineseName)
	}

	puncs := opts.Punctuations
	if puncs == "" {
		puncs = DefaultChinesePunctuations
	}

	args := pinyin.NewArgs()
	args.Style = pinyin.Tone3

	return &Chinese{punctuations: puncs, keepPuncs: opts.KeepPuncs, args: args}, nil
}

func (c *Chinese) Name() string     { return ChineseName }
func (c *Chinese) Language() string { return "zh-cn" }
func (c *Chinese) Version() string  { return "0.0.1" }

// IsAvailable reports whether the pinyin dictionary is loaded.
func (c *Chinese) IsAvailable() bool { return len(pinyin.PinyinDict) > 0 }

func (c *Chinese) SupportedLanguages() map[string]string {
	return map[string]string{"zh-cn": "chinese"}
}

// Phonemize converts every Han character to [initial] final tone units; all
// other characters pass through.
func (c *Chinese) Phonemize(text, separator string) (string, error) {
	if !c.keepPuncs {
		text = StripPunctuation(text, c.punctuations)
	}

	var units []string

	for _, r := range text {
		if !unicode.Is(unicode.Han, r) {
			units = append(units, string(r))
			continue
		}

		pys := pinyin.Pinyin(string(r), c.args)
		if len(pys) == 0 || len(pys[0]) == 0 {
			units = append(units, string(r))
			continue
		}

		units = append(units, splitSyllable(pys[0][0])...)
	}

	return joinUnits(units, separator), nil
}

// splitSyllable splits a Tone3 syllable such as "zhong1" into
// ["zh", "ong", "1"]. Neutral-tone syllables get tone 5.
func splitSyllable(py string) []string {
	tone := "5"
	if n := len(py); n > 0 && py[n-1] >= '1' && py[n-1] <= '5' {
		tone = py[n-1:]
		py = py[:n-1]
	}

	initial := syllableInitial(py)
	final := strings.TrimPrefix(py, initial)

	units := make([]string, 0, 3)
	if initial != "" {
		units = append(units, initial)
	}

	if final != "" {
		units = append(units, final)
	}

	return append(units, tone)
}

func syllableInitial(py string) string {
	for _, s := range []string{"zh", "ch", "sh"} {
		if strings.HasPrefix(py, s) {
			return s
		}
	}

	for _, s := range strings.Fields("b p m f d t n l g k h j q x r z c s y w") {
		if strings.HasPrefix(py, s) {
			return s
		}
	}

	return ""
}
