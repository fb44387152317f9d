package config

import (
	"reflect"
	"testing"

	"github.com/spf13/pflag"

	"github.com/example/go-ttstok/internal/testutil"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want info", cfg.LogLevel)
	}

	if cfg.Tokenizer.TextCleaner != "basic_cleaners" {
		t.Errorf("TextCleaner = %q; want basic_cleaners", cfg.Tokenizer.TextCleaner)
	}

	if !cfg.Phonemizer.KeepPuncs {
		t.Error("Phonemizer.KeepPuncs = false; want true")
	}

	if cfg.Server.ListenAddr != ":8080" || cfg.Server.Workers != 4 || cfg.Server.MaxTextBytes != 4096 {
		t.Errorf("Server = %+v", cfg.Server)
	}

	if cfg.Dataset.Format != "ljspeech" || cfg.Dataset.Workers != 4 {
		t.Errorf("Dataset = %+v", cfg.Dataset)
	}
}

// --- RegisterFlags ---

func TestRegisterFlags_EveryFlagIsBound(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	fs.VisitAll(func(f *pflag.Flag) {
		if _, ok := flagKeys[f.Name]; !ok {
			t.Errorf("flag %q has no config key", f.Name)
		}
	})

	for name := range flagKeys {
		if fs.Lookup(name) == nil {
			t.Errorf("config key for %q has no flag", name)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults), Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.Server, defaults.Server) {
		t.Errorf("Server = %+v; want %+v", cfg.Server, defaults.Server)
	}

	if cfg.Tokenizer.TextCleaner != defaults.Tokenizer.TextCleaner {
		t.Errorf("TextCleaner = %q; want %q", cfg.Tokenizer.TextCleaner, defaults.Tokenizer.TextCleaner)
	}

	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q; want :8080", cfg.Server.ListenAddr)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(t, defaults,
		"--use-phonemes",
		"--phoneme-language=ko-kr",
		"--phoneme-languages=ko-kr,zh-cn",
		"--phonemizer-backend=ko_kr_phonemizer",
		"--add-blank",
		"--characters-profile=KoreanJamo",
		"--server-workers=8",
		"--log-level=debug",
	)

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := TokenizerConfig{
		UsePhonemes:      true,
		TextCleaner:      "basic_cleaners",
		AddBlank:         true,
		PhonemeLanguage:  "ko-kr",
		PhonemeLanguages: []string{"ko-kr", "zh-cn"},
		Phonemizer:       "ko_kr_phonemizer",
	}
	if !reflect.DeepEqual(cfg.Tokenizer, want) {
		t.Errorf("Tokenizer = %+v; want %+v", cfg.Tokenizer, want)
	}

	if cfg.Characters.Profile != "KoreanJamo" {
		t.Errorf("Characters.Profile = %q; want KoreanJamo", cfg.Characters.Profile)
	}

	if cfg.Server.Workers != 8 {
		t.Errorf("Server.Workers = %d; want 8", cfg.Server.Workers)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want debug", cfg.LogLevel)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TTSTOK_LOG_LEVEL", "warn")
	t.Setenv("TTSTOK_SERVER_LISTEN_ADDR", ":9999")
	t.Setenv("TTSTOK_TOKENIZER_ADD_BLANK", "true")

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults), Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want warn", cfg.LogLevel)
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want :9999", cfg.Server.ListenAddr)
	}

	if !cfg.Tokenizer.AddBlank {
		t.Error("Tokenizer.AddBlank = false; want true from env")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, "ttstok.yaml", `
log_level: error
tokenizer:
  use_phonemes: true
  phoneme_language: ko-kr
  enable_eos_bos_chars: true
phonemizer:
  keep_puncs: false
characters:
  profile: KoreanJamo
  symbols: ["<sil>"]
  blank: "_"
server:
  workers: 16
  listen_addr: ":7777"
`)

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(t, defaults), ConfigFile: path, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want error", cfg.LogLevel)
	}

	if !cfg.Tokenizer.UsePhonemes || cfg.Tokenizer.PhonemeLanguage != "ko-kr" || !cfg.Tokenizer.EnableEOSBOSChars {
		t.Errorf("Tokenizer = %+v", cfg.Tokenizer)
	}

	if cfg.Phonemizer.KeepPuncs {
		t.Error("Phonemizer.KeepPuncs = true; want false from file")
	}

	if cfg.Characters.Blank != "_" || !reflect.DeepEqual(cfg.Characters.Symbols, []string{"<sil>"}) {
		t.Errorf("Characters = %+v", cfg.Characters)
	}

	if cfg.Server.Workers != 16 || cfg.Server.ListenAddr != ":7777" {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, "ttstok.yaml", "server:\n  workers: 16\n")
	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        newFlagBinder(t, defaults, "--server-workers=2"),
		ConfigFile: path,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d; want 2", cfg.Server.Workers)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, "bad.yaml", ":\t:bad yaml:::")

	if _, err := Load(LoadOptions{ConfigFile: path, Defaults: DefaultConfig()}); err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: "/nonexistent/path/ttstok.yaml", Defaults: DefaultConfig()})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

// --- TokenizerConfig ---

func TestTokenizerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tokenizer.UsePhonemes = true
	cfg.Tokenizer.PhonemeLanguage = "ko-kr"
	cfg.Phonemizer.Punctuations = ".,"
	cfg.Characters.Profile = "KoreanJamo"

	tc := cfg.TokenizerConfig()

	if !tc.UsePhonemes || tc.PhonemeLanguage != "ko-kr" || tc.TextCleaner != "basic_cleaners" {
		t.Errorf("TokenizerConfig = %+v", tc)
	}

	if tc.Punctuations != ".," || tc.DropPuncs {
		t.Errorf("phonemizer options = %q drop=%v", tc.Punctuations, tc.DropPuncs)
	}

	if tc.Characters.Profile != "KoreanJamo" {
		t.Errorf("Characters.Profile = %q", tc.Characters.Profile)
	}
}
