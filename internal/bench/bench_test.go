package bench_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/go-ttstok/internal/bench"
)

type fixedEncoder struct {
	ids   []int
	err   error
	calls int
}

func (f *fixedEncoder) TextToIDs(string, string) ([]int, error) {
	f.calls++
	return f.ids, f.err
}

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

func TestStats_MinMaxMean(t *testing.T) {
	durations := []time.Duration{
		100 * time.Microsecond,
		200 * time.Microsecond,
		300 * time.Microsecond,
	}
	s := bench.ComputeStats(durations)

	if s.Min != 100*time.Microsecond {
		t.Errorf("want min=100µs, got %v", s.Min)
	}

	if s.Max != 300*time.Microsecond {
		t.Errorf("want max=300µs, got %v", s.Max)
	}

	if s.Mean != 200*time.Microsecond {
		t.Errorf("want mean=200µs, got %v", s.Mean)
	}
}

func TestStats_SingleRun(t *testing.T) {
	s := bench.ComputeStats([]time.Duration{150 * time.Microsecond})
	if s.Min != s.Max || s.Min != s.Mean {
		t.Errorf("single run: min/max/mean should all be equal, got min=%v max=%v mean=%v", s.Min, s.Max, s.Mean)
	}
}

func TestStats_Empty(t *testing.T) {
	if s := bench.ComputeStats(nil); s != (bench.Stats{}) {
		t.Errorf("want zero stats, got %+v", s)
	}
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_RecordsEveryRun(t *testing.T) {
	enc := &fixedEncoder{ids: []int{1, 2, 3}}

	runs, err := bench.Run(context.Background(), enc, "héllo", "", 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(runs) != 4 || enc.calls != 4 {
		t.Fatalf("runs=%d calls=%d, want 4", len(runs), enc.calls)
	}

	for i, r := range runs {
		if r.Index != i || r.Cold != (i == 0) {
			t.Errorf("run %d: index=%d cold=%v", i, r.Index, r.Cold)
		}

		if r.Tokens != 3 || r.Runes != 5 {
			t.Errorf("run %d: tokens=%d runes=%d", i, r.Tokens, r.Runes)
		}
	}
}

func TestRun_PropagatesEncoderError(t *testing.T) {
	sentinel := errors.New("boom")

	_, err := bench.Run(context.Background(), &fixedEncoder{err: sentinel}, "x", "", 2)
	if !errors.Is(err, sentinel) {
		t.Fatalf("want wrapped sentinel, got %v", err)
	}
}

func TestRun_RejectsZeroRuns(t *testing.T) {
	if _, err := bench.Run(context.Background(), &fixedEncoder{}, "x", "", 0); err == nil {
		t.Fatal("want error for zero runs")
	}
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enc := &fixedEncoder{}

	_, err := bench.Run(ctx, enc, "x", "", 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	if enc.calls != 0 {
		t.Errorf("encoder called %d times after cancel", enc.calls)
	}
}

// ---------------------------------------------------------------------------
// Throughput
// ---------------------------------------------------------------------------

func TestThroughput_Calculation(t *testing.T) {
	tps := bench.CalcThroughput(500, 250*time.Millisecond)
	if tps < 1999 || tps > 2001 {
		t.Errorf("want ≈2000 tokens/s, got %.2f", tps)
	}
}

func TestThroughput_ZeroDuration(t *testing.T) {
	if tps := bench.CalcThroughput(10, 0); tps != 0 {
		t.Errorf("want 0 for zero duration, got %.2f", tps)
	}
}

func TestMeanThroughput(t *testing.T) {
	runs := []bench.RunResult{{TokensPerSec: 100}, {TokensPerSec: 300}}
	if got := bench.MeanThroughput(runs); got != 200 {
		t.Errorf("want 200, got %.2f", got)
	}

	if got := bench.MeanThroughput(nil); got != 0 {
		t.Errorf("want 0 for no runs, got %.2f", got)
	}
}

func TestThroughputThreshold(t *testing.T) {
	if err := bench.CheckThroughputThreshold(50, 100); err == nil {
		t.Error("want error when mean is below threshold")
	}

	if err := bench.CheckThroughputThreshold(150, 100); err != nil {
		t.Errorf("want no error above threshold, got: %v", err)
	}

	if err := bench.CheckThroughputThreshold(100, 100); err != nil {
		t.Errorf("want no error at exact threshold, got: %v", err)
	}

	if err := bench.CheckThroughputThreshold(0, 0); err != nil {
		t.Errorf("threshold=0 should disable gate, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Output formatting
// ---------------------------------------------------------------------------

func sampleRuns() ([]bench.RunResult, bench.Stats) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 80 * time.Microsecond, Tokens: 40, TokensPerSec: 500000},
		{Index: 1, Cold: false, Duration: 40 * time.Microsecond, Tokens: 40, TokensPerSec: 1000000},
	}

	return runs, bench.ComputeStats([]time.Duration{80 * time.Microsecond, 40 * time.Microsecond})
}

func TestFormatTable_ContainsHeaders(t *testing.T) {
	runs, stats := sampleRuns()

	var buf strings.Builder
	bench.FormatTable(runs, stats, &buf)
	out := buf.String()

	for _, want := range []string{"run", "cold", "µs", "tokens/s", "(mean)"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON_IsValidJSON(t *testing.T) {
	runs, stats := sampleRuns()

	var buf bytes.Buffer
	bench.FormatJSON(runs, stats, &buf)

	var out struct {
		Runs  []map[string]any `json:"runs"`
		Stats struct {
			MeanUS           float64 `json:"mean_us"`
			MeanTokensPerSec float64 `json:"mean_tokens_per_sec"`
		} `json:"stats"`
	}

	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v\n%s", err, buf.String())
	}

	if len(out.Runs) != 2 || out.Stats.MeanUS != 60 || out.Stats.MeanTokensPerSec != 750000 {
		t.Errorf("unexpected report: %+v", out)
	}
}
