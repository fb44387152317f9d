package characters

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Profile names accepted by FromConfig.
const (
	ProfileGraphemes = "Graphemes"
	ProfileIPA       = "IPAPhonemes"
	ProfileKorean    = "KoreanJamo"
	ProfilePinyin    = "PinyinPhonemes"
)

// Default reserved symbols shared by every profile.
const (
	DefaultPad   = "<PAD>"
	DefaultEOS   = "<EOS>"
	DefaultBOS   = "<BOS>"
	DefaultBlank = "<BLNK>"
)

// ErrUnknownProfile is returned by FromConfig for unregistered profile names.
var ErrUnknownProfile = errors.New("unknown character profile")

const (
	letters      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	punctuations = "!'(),-.:;? "

	ipaVowels         = "iyɨʉɯuɪʏʊeøɘəɵɤoɛœɜɞʌɔæɐaɶɑɒᵻ"
	ipaNonPulmonic    = "ʘɓǀɗǃʄǂɠǁʛ"
	ipaPulmonic       = "pbtdʈɖcɟkɡqɢʔɴŋɲɳnɱmʙrʀⱱɾɽɸβfvθðszʃʒʂʐçʝxɣχʁħʕhɦɬɮʋɹɻjɰlɭʎʟ"
	ipaSuprasegmental = "ˈˌːˑ"
	ipaOther          = "ʍwɥʜʢʡɕʑɺɧʲ"
	ipaDiacritics     = "ɚ˞ɫ"

	koreanPunctuations = "!'(),-.:;? 、[]〽~『』「」【】"
)

type profile struct {
	characters   string
	punctuations string
}

var profiles = map[string]profile{
	ProfileGraphemes: {characters: letters, punctuations: punctuations},
	ProfileIPA: {
		characters:   ipaVowels + ipaNonPulmonic + ipaPulmonic + ipaSuprasegmental + ipaOther + ipaDiacritics,
		punctuations: punctuations,
	},
	ProfileKorean: {characters: hangulJamo(), punctuations: koreanPunctuations},
	ProfilePinyin: {characters: "abcdefghijklmnopqrstuvwxyzü12345", punctuations: punctuations},
}

// hangulJamo returns the conjoining jamo produced by canonical decomposition of
// precomposed Hangul syllables.
func hangulJamo() string {
	var b strings.Builder

	for _, span := range [][2]rune{{0x1100, 0x1112}, {0x1161, 0x1175}, {0x11A8, 0x11C2}} {
		for r := span[0]; r <= span[1]; r++ {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Profiles returns the registered profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Config selects a profile and overrides parts of it. Empty string fields fall
// back to the profile (characters, punctuations) or to the Default* reserved
// symbols.
type Config struct {
	Profile      string   `mapstructure:"profile"`
	Characters   string   `mapstructure:"characters"`
	Punctuations string   `mapstructure:"punctuations"`
	Symbols      []string `mapstructure:"symbols"`
	Pad          string   `mapstructure:"pad"`
	EOS          string   `mapstructure:"eos"`
	BOS          string   `mapstructure:"bos"`
	Blank        string   `mapstructure:"blank"`
	Unknown      string   `mapstructure:"unknown"`
	IsSorted     bool     `mapstructure:"is_sorted"`
}

// FromConfig assembles the vocabulary for cfg. The layout is
// [pad, eos, bos, blank] + characters + symbols + punctuations + [unknown],
// skipping reserved symbols that already occur among the characters and
// duplicate characters after their first occurrence.
func FromConfig(cfg Config) (*CharacterSet, error) {
	p, err := lookupProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}

	chars := orDefault(cfg.Characters, p.characters)
	puncs := orDefault(cfg.Punctuations, p.punctuations)
	specials := Specials{
		Pad:     orDefault(cfg.Pad, DefaultPad),
		EOS:     orDefault(cfg.EOS, DefaultEOS),
		BOS:     orDefault(cfg.BOS, DefaultBOS),
		Blank:   orDefault(cfg.Blank, DefaultBlank),
		Unknown: cfg.Unknown,
	}

	body := splitRunes(chars)
	if cfg.IsSorted {
		sort.Strings(body)
	}

	body = append(body, cfg.Symbols...)

	seen := make(map[string]bool)
	for _, s := range body {
		seen[s] = true
	}

	vocab := make([]string, 0, len(body)+len(puncs)+5)
	for _, s := range []string{specials.Pad, specials.EOS, specials.BOS, specials.Blank} {
		if s != "" && !seen[s] {
			vocab = append(vocab, s)
			seen[s] = true
		}
	}

	added := make(map[string]bool)
	for _, s := range body {
		if s == "" || added[s] {
			continue
		}

		added[s] = true
		vocab = append(vocab, s)
	}

	for _, s := range splitRunes(puncs) {
		if !seen[s] {
			seen[s] = true
			vocab = append(vocab, s)
		}
	}

	if specials.Unknown != "" && !seen[specials.Unknown] {
		vocab = append(vocab, specials.Unknown)
	}

	cs, err := NewCharacterSet(vocab, specials)
	if err != nil {
		return nil, fmt.Errorf("build %s character set: %w", cfg.Profile, err)
	}

	return cs, nil
}

// UnionConfig returns a Config whose characters and punctuations are the
// union of the named profiles, in the order given. The first name becomes the
// Config's profile.
func UnionConfig(names ...string) (Config, error) {
	if len(names) == 0 {
		return Config{}, fmt.Errorf("%w: no profiles to merge", ErrUnknownProfile)
	}

	var chars, puncs strings.Builder

	for _, name := range names {
		p, err := lookupProfile(name)
		if err != nil {
			return Config{}, err
		}

		chars.WriteString(p.characters)
		puncs.WriteString(p.punctuations)
	}

	return Config{
		Profile:      names[0],
		Characters:   chars.String(),
		Punctuations: puncs.String(),
	}, nil
}

func lookupProfile(name string) (profile, error) {
	if name == "" {
		name = ProfileGraphemes
	}

	if p, ok := profiles[name]; ok {
		return p, nil
	}

	for key, p := range profiles {
		if strings.EqualFold(key, name) {
			return p, nil
		}
	}

	return profile{}, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownProfile, name, strings.Join(Profiles(), "|"))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

// splitRunes splits s into one string per rune, dropping duplicates.
func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	seen := make(map[rune]bool, len(s))

	for _, r := range s {
		if seen[r] {
			continue
		}

		seen[r] = true
		out = append(out, string(r))
	}

	return out
}
