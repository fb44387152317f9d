package cleaner

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Built-in cleaner names.
const (
	Basic           = "basic_cleaners"
	Transliteration = "transliteration_cleaners"
	English         = "english_cleaners"
	Phoneme         = "phoneme_cleaners"
	Multilingual    = "multilingual_cleaners"
	None            = "no_cleaners"
)

func init() {
	Register(Basic, Simple(BasicClean))
	Register(Transliteration, Simple(TransliterationClean))
	Register(English, Simple(EnglishClean))
	Register(Phoneme, Simple(PhonemeClean))
	Register(Multilingual, Simple(MultilingualClean))
	Register(None, Simple(func(s string) string { return s }))
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	auxSymbolsRe = regexp.MustCompile(`[<>()\[\]"]+`)
)

type abbreviation struct {
	re   *regexp.Regexp
	repl string
}

var abbreviations = newAbbreviations(
	"mrs", "misess",
	"mr", "mister",
	"drs", "doctors",
	"dr", "doctor",
	"st", "saint",
	"co", "company",
	"jr", "junior",
	"maj", "major",
	"gen", "general",
	"rev", "reverend",
	"lt", "lieutenant",
	"hon", "honorable",
	"sgt", "sergeant",
	"capt", "captain",
	"esq", "esquire",
	"ltd", "limited",
	"col", "colonel",
	"ft", "fort",
)

func newAbbreviations(pairs ...string) []abbreviation {
	out := make([]abbreviation, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, abbreviation{
			re:   regexp.MustCompile(`(?i)\b` + pairs[i] + `\.`),
			repl: pairs[i+1],
		})
	}

	return out
}

// CollapseWhitespace replaces whitespace runs with one space and trims.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Transliterate strips combining marks and folds a few ligatures to ASCII.
// Characters with no ASCII form are kept.
func Transliterate(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}

	return ligatures.Replace(out)
}

var ligatures = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O", "ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
)

// ExpandAbbreviations spells out common English abbreviations.
func ExpandAbbreviations(text string) string {
	for _, a := range abbreviations {
		text = a.re.ReplaceAllString(text, a.repl)
	}

	return text
}

// BasicClean lowercases and collapses whitespace.
func BasicClean(text string) string {
	return CollapseWhitespace(strings.ToLower(text))
}

// TransliterationClean is BasicClean applied to transliterated text.
func TransliterationClean(text string) string {
	return BasicClean(Transliterate(text))
}

// EnglishClean is the pipeline for English grapheme models.
func EnglishClean(text string) string {
	text = Transliterate(text)
	text = strings.ToLower(text)
	text = ExpandNumbers(text)
	text = ExpandAbbreviations(text)

	return CollapseWhitespace(text)
}

// PhonemeClean prepares text for a phonemizer: numbers are spelled out and
// whitespace collapsed, case and script are left alone.
func PhonemeClean(text string) string {
	return CollapseWhitespace(ExpandNumbers(text))
}

var symbolReplacer = strings.NewReplacer(";", ",", ":", ",", "&", " and ")

// MultilingualClean lowercases with Unicode rules, folds separators to commas
// and drops bracketing symbols.
func MultilingualClean(text string) string {
	// Casers are stateful, so one is built per call.
	text = cases.Lower(language.Und).String(text)
	text = symbolReplacer.Replace(text)
	text = auxSymbolsRe.ReplaceAllString(text, "")

	return CollapseWhitespace(text)
}
