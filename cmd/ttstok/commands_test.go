package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/example/go-ttstok/internal/config"
	"github.com/example/go-ttstok/internal/dataset"
	"github.com/example/go-ttstok/internal/phonemizer"
	"github.com/example/go-ttstok/internal/testutil"
	"github.com/example/go-ttstok/internal/tokenizer"
)

func defaultTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()

	tc := config.DefaultConfig().TokenizerConfig()
	tc.Logger = testutil.DiscardLogger()

	tok, err := tokenizer.NewFromConfig(tc)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	return tok
}

// ---------------------------------------------------------------------------
// tokenize / decode
// ---------------------------------------------------------------------------

func TestTokenizeCmd_PrintsIDs(t *testing.T) {
	want, err := defaultTokenizer(t).TextToIDs("Hello world", "")
	if err != nil {
		t.Fatalf("TextToIDs: %v", err)
	}

	out, err := runCmd(t, "", "tokenize", "--text", "Hello world")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	if strings.TrimSpace(out) != formatIDs(want) {
		t.Errorf("output = %q, want %q", out, formatIDs(want))
	}
}

func TestTokenizeCmd_ReadsStdin(t *testing.T) {
	fromFlag, err := runCmd(t, "", "tokenize", "--text", "abc")
	if err != nil {
		t.Fatalf("tokenize --text: %v", err)
	}

	fromStdin, err := runCmd(t, "abc\n", "tokenize")
	if err != nil {
		t.Fatalf("tokenize stdin: %v", err)
	}

	if fromFlag != fromStdin {
		t.Errorf("stdin output %q != flag output %q", fromStdin, fromFlag)
	}
}

func TestTokenizeCmd_JSONChunks(t *testing.T) {
	out, err := runCmd(t, "", "tokenize", "--json", "--max-tokens", "12", "--text", "One two. Three four five six.")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	var got struct {
		Chunks []struct {
			Text string `json:"text"`
			IDs  []int  `json:"ids"`
		} `json:"chunks"`
		NotFound []string `json:"not_found"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	if len(got.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2: %+v", len(got.Chunks), got.Chunks)
	}

	if got.Chunks[0].Text != "One two." {
		t.Errorf("first chunk = %q", got.Chunks[0].Text)
	}
}

func TestTokenizeCmd_MaxCharsSplitsSentences(t *testing.T) {
	out, err := runCmd(t, "", "tokenize", "--json", "--max-chars", "10", "--text", "One two. Three four.")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	var got struct {
		Chunks []struct {
			Text string `json:"text"`
			IDs  []int  `json:"ids"`
		} `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	want := []string{"One two.", "Three four."}
	if len(got.Chunks) != len(want) {
		t.Fatalf("chunks = %+v, want %d", got.Chunks, len(want))
	}

	tok := defaultTokenizer(t)

	for i, c := range got.Chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d text = %q, want %q", i, c.Text, want[i])
		}

		ids, err := tok.TextToIDs(want[i], "")
		if err != nil {
			t.Fatalf("TextToIDs: %v", err)
		}

		if !reflect.DeepEqual(c.IDs, ids) {
			t.Errorf("chunk %d ids = %v, want %v", i, c.IDs, ids)
		}
	}

	whole, err := runCmd(t, "", "tokenize", "--json", "--max-chars", "100", "--text", "One two. Three four.")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	if err := json.Unmarshal([]byte(whole), &got); err != nil {
		t.Fatalf("decode %q: %v", whole, err)
	}

	if len(got.Chunks) != 1 {
		t.Errorf("chunks under a large limit = %d, want 1", len(got.Chunks))
	}
}

func TestTokenizeCmd_AddBlankFlag(t *testing.T) {
	plain, err := runCmd(t, "", "tokenize", "--text", "ab")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	blank, err := runCmd(t, "", "tokenize", "--add-blank", "--text", "ab")
	if err != nil {
		t.Fatalf("tokenize --add-blank: %v", err)
	}

	if n, m := len(strings.Fields(plain)), len(strings.Fields(blank)); m != 2*n+1 {
		t.Errorf("with blanks %d ids, want %d", m, 2*n+1)
	}
}

func TestDecodeCmd_RoundTrip(t *testing.T) {
	ids, err := runCmd(t, "", "tokenize", "--text-cleaner", "", "--text", "hello, world!")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	out, err := runCmd(t, ids, "decode")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if strings.TrimSpace(out) != "hello, world!" {
		t.Errorf("decode = %q", out)
	}

	args := append([]string{"decode"}, strings.Fields(ids)...)

	out, err = runCmd(t, "", args...)
	if err != nil {
		t.Fatalf("decode args: %v", err)
	}

	if strings.TrimSpace(out) != "hello, world!" {
		t.Errorf("decode args = %q", out)
	}
}

func TestDecodeCmd_OutOfRange(t *testing.T) {
	if _, err := runCmd(t, "", "decode", "100000"); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestParseIDs(t *testing.T) {
	got, err := parseIDs([]string{"[1,", "2,", "3]"})
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}

	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("parseIDs = %v", got)
	}

	if _, err := parseIDs([]string{"x"}); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

// ---------------------------------------------------------------------------
// phonemize / phonemizers / vocab
// ---------------------------------------------------------------------------

func TestPhonemizeCmd_Korean(t *testing.T) {
	b, err := phonemizer.New(phonemizer.KoreanName, phonemizer.Options{Language: "ko-kr", KeepPuncs: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want, err := b.Phonemize("안녕", "|")
	if err != nil {
		t.Fatalf("Phonemize: %v", err)
	}

	out, err := runCmd(t, "", "phonemize", "--language", "ko-kr", "--text", "안녕")
	if err != nil {
		t.Fatalf("phonemize: %v", err)
	}

	if strings.TrimSpace(out) != want {
		t.Errorf("phonemize = %q, want %q", out, want)
	}
}

func TestPhonemizeCmd_RequiresLanguage(t *testing.T) {
	if _, err := runCmd(t, "", "phonemize", "--text", "x"); err == nil {
		t.Fatal("expected error without a language")
	}
}

func TestPhonemizersCmd_ListsBuiltins(t *testing.T) {
	out, err := runCmd(t, "", "phonemizers")
	if err != nil {
		t.Fatalf("phonemizers: %v", err)
	}

	for _, name := range []string{phonemizer.KoreanName, phonemizer.ChineseName} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %s:\n%s", name, out)
		}
	}
}

func TestVocabCmd_YAML(t *testing.T) {
	out, err := runCmd(t, "", "vocab", "--format", "yaml")
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}

	var got vocabExport
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("yaml: %v", err)
	}

	tok := defaultTokenizer(t)
	if got.Size != tok.Characters().Size() || len(got.Symbols) != got.Size {
		t.Errorf("size = %d, symbols = %d, want %d", got.Size, len(got.Symbols), tok.Characters().Size())
	}

	if got.PadID != tok.PadID() || got.BlankID != tok.BlankID() {
		t.Errorf("pad/blank = %d/%d, want %d/%d", got.PadID, got.BlankID, tok.PadID(), tok.BlankID())
	}
}

func TestVocabCmd_JSONMatchesText(t *testing.T) {
	jsonOut, err := runCmd(t, "", "vocab", "--format", "json")
	if err != nil {
		t.Fatalf("vocab json: %v", err)
	}

	var got vocabExport
	if err := json.Unmarshal([]byte(jsonOut), &got); err != nil {
		t.Fatalf("json: %v", err)
	}

	textOut, err := runCmd(t, "", "vocab")
	if err != nil {
		t.Fatalf("vocab text: %v", err)
	}

	if lines := strings.Count(textOut, "\n"); lines != len(got.Symbols) {
		t.Errorf("text lines = %d, want %d", lines, len(got.Symbols))
	}
}

func TestVocabCmd_InvalidFormat(t *testing.T) {
	if _, err := runCmd(t, "", "vocab", "--format", "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

// ---------------------------------------------------------------------------
// dataset / doctor / health
// ---------------------------------------------------------------------------

func TestDatasetCmd_WritesJSONL(t *testing.T) {
	meta := testutil.WriteFile(t, "metadata.csv", "LJ001|Hello world.|Hello world.\nLJ002|Second line.|\n")
	out := filepath.Join(t.TempDir(), "encoded.jsonl")

	stdout, err := runCmd(t, "", "dataset", meta, "--out", out, "--dataset-workers", "2")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}

	if !strings.Contains(stdout, "encoded 2 samples") {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var first dataset.Encoded
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}

	want, err := defaultTokenizer(t).TextToIDs("Hello world.", "")
	if err != nil {
		t.Fatalf("TextToIDs: %v", err)
	}

	if first.ID != "LJ001" || !reflect.DeepEqual(first.IDs, want) {
		t.Errorf("first = %+v, want LJ001 %v", first, want)
	}
}

func TestDatasetCmd_PlainToStdout(t *testing.T) {
	meta := testutil.WriteFile(t, "lines.txt", "first\nsecond\n")

	out, err := runCmd(t, "", "dataset", meta, "--dataset-format", "plain")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}

	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("lines = %d, want 2:\n%s", n, out)
	}
}

func TestDatasetCmd_PadFillsToLongest(t *testing.T) {
	meta := testutil.WriteFile(t, "lines.txt", "a\nabcd\n")

	out, err := runCmd(t, "", "dataset", meta, "--dataset-format", "plain", "--pad")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2:\n%s", len(lines), out)
	}

	var short, long dataset.Encoded
	if err := json.Unmarshal([]byte(lines[0]), &short); err != nil {
		t.Fatalf("decode line: %v", err)
	}

	if err := json.Unmarshal([]byte(lines[1]), &long); err != nil {
		t.Fatalf("decode line: %v", err)
	}

	if len(short.IDs) != len(long.IDs) {
		t.Fatalf("lengths = %d and %d, want equal", len(short.IDs), len(long.IDs))
	}

	tok := defaultTokenizer(t)

	want, err := tok.TextToIDs("a", "")
	if err != nil {
		t.Fatalf("TextToIDs: %v", err)
	}

	if !reflect.DeepEqual(short.IDs[:len(want)], want) {
		t.Errorf("prefix = %v, want %v", short.IDs[:len(want)], want)
	}

	for i, id := range short.IDs[len(want):] {
		if id != tok.PadID() {
			t.Errorf("tail[%d] = %d, want pad %d", i, id, tok.PadID())
		}
	}
}

func TestDatasetCmd_UnknownFormat(t *testing.T) {
	meta := testutil.WriteFile(t, "lines.txt", "first\n")

	if _, err := runCmd(t, "", "dataset", meta, "--dataset-format", "csv"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDoctorCmd_Passes(t *testing.T) {
	meta := testutil.WriteFile(t, "metadata.csv", "a|b\n")

	out, err := runCmd(t, "", "doctor", meta)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}

	if !strings.Contains(out, "doctor checks passed") {
		t.Errorf("output = %q", out)
	}
}

func TestDoctorCmd_FailsOnMissingFile(t *testing.T) {
	_, err := runCmd(t, "", "doctor", filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected doctor failure")
	}
}

func TestDoctorCmd_FailsOnUnknownCleaner(t *testing.T) {
	if _, err := runCmd(t, "", "doctor", "--text-cleaner", "nope_cleaners"); err == nil {
		t.Fatal("expected doctor failure")
	}
}

func TestHealthCmd_FailsWithoutServer(t *testing.T) {
	if _, err := runCmd(t, "", "health", "--addr", testutil.FreeAddr(t)); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestBenchCmd_JSON(t *testing.T) {
	out, err := runCmd(t, "", "bench", "--runs", "3", "--format", "json", "--text", "Hello world.")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	var got struct {
		Runs []struct {
			Tokens int `json:"tokens"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	if len(got.Runs) != 3 || got.Runs[0].Tokens == 0 {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestBenchCmd_RejectsBadFlags(t *testing.T) {
	if _, err := runCmd(t, "", "bench", "--runs", "0", "--text", "x"); err == nil {
		t.Error("expected error for --runs 0")
	}

	if _, err := runCmd(t, "", "bench", "--format", "csv", "--text", "x"); err == nil {
		t.Error("expected error for --format csv")
	}
}
