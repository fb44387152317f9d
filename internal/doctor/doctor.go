// Package doctor provides preflight checks for a ttstok configuration.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/example/go-ttstok/internal/cleaner"
	"github.com/example/go-ttstok/internal/phonemizer"
	"github.com/example/go-ttstok/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds the settings under test.
type Config struct {
	Tokenizer tokenizer.Config
	// DatasetFiles are metadata files expected on disk.
	DatasetFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	tc := cfg.Tokenizer

	// ---- text cleaner -----------------------------------------------------
	if tc.TextCleaner == "" {
		fmt.Fprintf(w, "%s text cleaner: disabled\n", PassMark)
	} else if _, err := cleaner.Lookup(tc.TextCleaner); err != nil {
		res.fail(fmt.Sprintf("text cleaner: %v", err))
		fmt.Fprintf(w, "%s text cleaner: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s text cleaner: %s\n", PassMark, tc.TextCleaner)
	}

	// ---- phonemizers ------------------------------------------------------
	if !tc.UsePhonemes {
		fmt.Fprintf(w, "%s phonemizer: skipped (use_phonemes is off)\n", PassMark)
	} else {
		langs := tc.PhonemeLanguages
		if len(langs) == 0 {
			langs = []string{tc.PhonemeLanguage}
		}

		for _, lang := range langs {
			checkPhonemizer(&res, w, tc, lang)
		}
	}

	// ---- tokenizer --------------------------------------------------------
	if tok, err := tokenizer.NewFromConfig(tc); err != nil {
		res.fail(fmt.Sprintf("tokenizer: %v", err))
		fmt.Fprintf(w, "%s tokenizer: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s tokenizer: %d symbols (pad=%d blank=%d bos=%d eos=%d)\n",
			PassMark, tok.Characters().Size(), tok.PadID(), tok.BlankID(), tok.BOSID(), tok.EOSID())
	}

	// ---- dataset files ----------------------------------------------------
	for _, path := range cfg.DatasetFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("dataset file %q: %v", path, err))
			fmt.Fprintf(w, "%s dataset file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s dataset file: %s\n", PassMark, path)
		}
	}

	return res
}

func checkPhonemizer(res *Result, w io.Writer, tc tokenizer.Config, lang string) {
	if lang == "" {
		res.fail("phonemizer: no phoneme language configured")
		fmt.Fprintf(w, "%s phonemizer: no phoneme language configured\n", FailMark)

		return
	}

	name := tc.Phonemizer
	if name == "" {
		def, err := phonemizer.DefaultFor(lang)
		if err != nil {
			res.fail(fmt.Sprintf("phonemizer %s: %v", lang, err))
			fmt.Fprintf(w, "%s phonemizer %s: %v\n", FailMark, lang, err)

			return
		}

		name = def
	}

	b, err := phonemizer.New(name, phonemizer.Options{Language: lang, Punctuations: tc.Punctuations, KeepPuncs: !tc.DropPuncs})
	if err != nil {
		res.fail(fmt.Sprintf("phonemizer %s: %v", lang, err))
		fmt.Fprintf(w, "%s phonemizer %s: %v\n", FailMark, lang, err)

		return
	}

	if !b.IsAvailable() {
		res.fail(fmt.Sprintf("phonemizer %s: %s is not available", lang, name))
		fmt.Fprintf(w, "%s phonemizer %s: %s not available\n", FailMark, lang, name)

		return
	}

	fmt.Fprintf(w, "%s phonemizer %s: %s %s\n", PassMark, lang, name, b.Version())
}
