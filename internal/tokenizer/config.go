package tokenizer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-ttstok/internal/characters"
	"github.com/example/go-ttstok/internal/cleaner"
	"github.com/example/go-ttstok/internal/phonemizer"
)

// Config is the typed form of a model's tokenizer settings. Zero values are
// the documented defaults: no phonemes, no blanks, no BOS/EOS, no cleaner.
type Config struct {
	UsePhonemes bool
	// TextCleaner names a registered cleaner; empty disables cleaning.
	TextCleaner       string
	AddBlank          bool
	EnableEOSBOSChars bool
	PhonemeLanguage   string
	// PhonemeLanguages builds a per-language phonemizer map when it lists
	// more than one language. It takes precedence over PhonemeLanguage.
	PhonemeLanguages []string
	// Phonemizer overrides the default backend of the phoneme language.
	Phonemizer   string
	Punctuations string
	// DropPuncs strips punctuation from phonemizer output. The zero value
	// keeps it.
	DropPuncs    bool
	// Characters selects the vocabulary. An empty profile defaults to the
	// phonemizer's registered profile (IPAPhonemes as fallback) when
	// UsePhonemes is set and to Graphemes otherwise. Backends registered with
	// different profiles get the union of those profiles.
	Characters characters.Config
	Logger     *slog.Logger
}

// NewFromConfig resolves the cleaner, phonemizer and character set named by
// cfg and builds a Tokenizer. Every resolution failure wraps ErrConfiguration.
func NewFromConfig(cfg Config) (*Tokenizer, error) {
	opts := Options{
		UsePhonemes: cfg.UsePhonemes,
		AddBlank:    cfg.AddBlank,
		UseEOSBOS:   cfg.EnableEOSBOSChars,
		Logger:      cfg.Logger,
	}

	if cfg.TextCleaner != "" {
		fn, err := cleaner.Lookup(cfg.TextCleaner)
		if err != nil {
			return nil, fmt.Errorf("%w: text cleaner: %w", ErrConfiguration, err)
		}

		opts.TextCleaner = fn
	}

	profile := cfg.Characters.Profile
	charsCfg := cfg.Characters

	if cfg.UsePhonemes {
		langs := cfg.PhonemeLanguages
		if len(langs) == 0 {
			if cfg.PhonemeLanguage == "" {
				return nil, fmt.Errorf("%w: use_phonemes requires phoneme_language", ErrConfiguration)
			}

			langs = []string{cfg.PhonemeLanguage}
		}

		backends := make(map[string]phonemizer.Backend, len(langs))

		var registered []string

		for _, lang := range langs {
			name := cfg.Phonemizer
			if name == "" {
				def, err := phonemizer.DefaultFor(lang)
				if err != nil {
					return nil, fmt.Errorf("%w: phonemizer: %w", ErrConfiguration, err)
				}

				name = def
			}

			b, err := phonemizer.New(name, phonemizer.Options{
				Language:     lang,
				Punctuations: cfg.Punctuations,
				KeepPuncs:    !cfg.DropPuncs,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: phonemizer for %q: %w", ErrConfiguration, lang, err)
			}

			registered = appendProfile(registered, registeredProfile(name))
			backends[lang] = b
		}

		if len(langs) == 1 {
			opts.Phonemizer = backends[langs[0]]
		} else {
			opts.Phonemizers = backends
		}

		if profile == "" && len(registered) > 1 {
			union, err := characters.UnionConfig(registered...)
			if err != nil {
				return nil, fmt.Errorf("%w: characters: %w", ErrConfiguration, err)
			}

			profile = union.Profile
			charsCfg = mergeUnion(cfg.Characters, union)
		} else if profile == "" {
			profile = registered[0]
		}
	} else if profile == "" {
		profile = characters.ProfileGraphemes
	}

	charsCfg.Profile = profile

	cs, err := characters.FromConfig(charsCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: characters: %w", ErrConfiguration, err)
	}

	opts.Characters = cs

	return New(opts)
}

func registeredProfile(backend string) string {
	if reg, ok := phonemizer.Lookup(backend); ok && reg.Characters != "" {
		return reg.Characters
	}

	return characters.ProfileIPA
}

func appendProfile(profiles []string, name string) []string {
	for _, p := range profiles {
		if strings.EqualFold(p, name) {
			return profiles
		}
	}

	return append(profiles, name)
}

// mergeUnion fills the character and punctuation fields of cfg that are
// still empty from union.
func mergeUnion(cfg, union characters.Config) characters.Config {
	if cfg.Characters == "" {
		cfg.Characters = union.Characters
	}

	if cfg.Punctuations == "" {
		cfg.Punctuations = union.Punctuations
	}

	return cfg
}
