// Package config loads ttstok settings from defaults, an optional config
// file, TTSTOK_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/example/go-ttstok/internal/characters"
	"github.com/example/go-ttstok/internal/tokenizer"
)

type Config struct {
	LogLevel   string            `mapstructure:"log_level"`
	Tokenizer  TokenizerConfig   `mapstructure:"tokenizer"`
	Phonemizer PhonemizerConfig  `mapstructure:"phonemizer"`
	Characters characters.Config `mapstructure:"characters"`
	Server     ServerConfig      `mapstructure:"server"`
	Dataset    DatasetConfig     `mapstructure:"dataset"`
}

type TokenizerConfig struct {
	UsePhonemes       bool     `mapstructure:"use_phonemes"`
	TextCleaner       string   `mapstructure:"text_cleaner"`
	AddBlank          bool     `mapstructure:"add_blank"`
	EnableEOSBOSChars bool     `mapstructure:"enable_eos_bos_chars"`
	PhonemeLanguage   string   `mapstructure:"phoneme_language"`
	PhonemeLanguages  []string `mapstructure:"phoneme_languages"`
	Phonemizer        string   `mapstructure:"phonemizer"`
}

type PhonemizerConfig struct {
	Punctuations string `mapstructure:"punctuations"`
	KeepPuncs    bool   `mapstructure:"keep_puncs"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type DatasetConfig struct {
	Format   string `mapstructure:"format"`
	Workers  int    `mapstructure:"workers"`
	Language string `mapstructure:"language"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Tokenizer: TokenizerConfig{
			TextCleaner: "basic_cleaners",
		},
		Phonemizer: PhonemizerConfig{
			KeepPuncs: true,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    4096,
			ShutdownTimeout: 30,
		},
		Dataset: DatasetConfig{
			Format:  "ljspeech",
			Workers: 4,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")

	fs.Bool("use-phonemes", defaults.Tokenizer.UsePhonemes, "Phonemize text before segmentation")
	fs.String("text-cleaner", defaults.Tokenizer.TextCleaner, "Registered text cleaner (empty disables cleaning)")
	fs.Bool("add-blank", defaults.Tokenizer.AddBlank, "Intersperse the blank symbol between tokens")
	fs.Bool("enable-eos-bos", defaults.Tokenizer.EnableEOSBOSChars, "Wrap sequences in BOS/EOS symbols")
	fs.String("phoneme-language", defaults.Tokenizer.PhonemeLanguage, "Phonemizer language (e.g. ko-kr)")
	fs.StringSlice("phoneme-languages", defaults.Tokenizer.PhonemeLanguages, "Languages served by a per-language phonemizer map")
	fs.String("phonemizer-backend", defaults.Tokenizer.Phonemizer, "Phonemizer backend overriding the language default")

	fs.String("punctuations", defaults.Phonemizer.Punctuations, "Punctuation marks the phonemizer preserves")
	fs.Bool("keep-puncs", defaults.Phonemizer.KeepPuncs, "Keep punctuation in phonemizer output")

	fs.String("characters-profile", defaults.Characters.Profile, "Character profile (Graphemes|IPAPhonemes|KoreanJamo|PinyinPhonemes)")
	fs.Bool("characters-sorted", defaults.Characters.IsSorted, "Sort profile characters by code point")

	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-workers", defaults.Server.Workers, "Concurrent tokenization requests")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum text size accepted by /tokenize")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")

	fs.String("dataset-format", defaults.Dataset.Format, "Metadata format (ljspeech|coqui|plain)")
	fs.Int("dataset-workers", defaults.Dataset.Workers, "Dataset encoding workers")
	fs.String("dataset-language", defaults.Dataset.Language, "Language for samples without a language column")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)

	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TTSTOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ttstok")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// TokenizerConfig converts the loaded settings to the tokenizer's typed
// configuration.
func (c Config) TokenizerConfig() tokenizer.Config {
	return tokenizer.Config{
		UsePhonemes:       c.Tokenizer.UsePhonemes,
		TextCleaner:       c.Tokenizer.TextCleaner,
		AddBlank:          c.Tokenizer.AddBlank,
		EnableEOSBOSChars: c.Tokenizer.EnableEOSBOSChars,
		PhonemeLanguage:   c.Tokenizer.PhonemeLanguage,
		PhonemeLanguages:  c.Tokenizer.PhonemeLanguages,
		Phonemizer:        c.Tokenizer.Phonemizer,
		Punctuations:      c.Phonemizer.Punctuations,
		DropPuncs:         !c.Phonemizer.KeepPuncs,
		Characters:        c.Characters,
	}
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("tokenizer.use_phonemes", c.Tokenizer.UsePhonemes)
	v.SetDefault("tokenizer.text_cleaner", c.Tokenizer.TextCleaner)
	v.SetDefault("tokenizer.add_blank", c.Tokenizer.AddBlank)
	v.SetDefault("tokenizer.enable_eos_bos_chars", c.Tokenizer.EnableEOSBOSChars)
	v.SetDefault("tokenizer.phoneme_language", c.Tokenizer.PhonemeLanguage)
	v.SetDefault("tokenizer.phoneme_languages", c.Tokenizer.PhonemeLanguages)
	v.SetDefault("tokenizer.phonemizer", c.Tokenizer.Phonemizer)
	v.SetDefault("phonemizer.punctuations", c.Phonemizer.Punctuations)
	v.SetDefault("phonemizer.keep_puncs", c.Phonemizer.KeepPuncs)
	v.SetDefault("characters.profile", c.Characters.Profile)
	v.SetDefault("characters.characters", c.Characters.Characters)
	v.SetDefault("characters.punctuations", c.Characters.Punctuations)
	v.SetDefault("characters.symbols", c.Characters.Symbols)
	v.SetDefault("characters.pad", c.Characters.Pad)
	v.SetDefault("characters.eos", c.Characters.EOS)
	v.SetDefault("characters.bos", c.Characters.BOS)
	v.SetDefault("characters.blank", c.Characters.Blank)
	v.SetDefault("characters.unknown", c.Characters.Unknown)
	v.SetDefault("characters.is_sorted", c.Characters.IsSorted)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("dataset.format", c.Dataset.Format)
	v.SetDefault("dataset.workers", c.Dataset.Workers)
	v.SetDefault("dataset.language", c.Dataset.Language)
}

// flagKeys maps flag names to the config keys they override. Binding each
// flag to its dotted key keeps config file and environment values visible
// for keys that also have a flag.
var flagKeys = map[string]string{
	"log-level":               "log_level",
	"use-phonemes":            "tokenizer.use_phonemes",
	"text-cleaner":            "tokenizer.text_cleaner",
	"add-blank":               "tokenizer.add_blank",
	"enable-eos-bos":          "tokenizer.enable_eos_bos_chars",
	"phoneme-language":        "tokenizer.phoneme_language",
	"phoneme-languages":       "tokenizer.phoneme_languages",
	"phonemizer-backend":      "tokenizer.phonemizer",
	"punctuations":            "phonemizer.punctuations",
	"keep-puncs":              "phonemizer.keep_puncs",
	"characters-profile":      "characters.profile",
	"characters-sorted":       "characters.is_sorted",
	"server-listen-addr":      "server.listen_addr",
	"server-workers":          "server.workers",
	"server-max-text-bytes":   "server.max_text_bytes",
	"server-shutdown-timeout": "server.shutdown_timeout",
	"dataset-format":          "dataset.format",
	"dataset-workers":         "dataset.workers",
	"dataset-language":        "dataset.language",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}
