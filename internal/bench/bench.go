// Package bench provides benchmarking primitives for the ttstok bench command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// Encoder is the operation being timed. *tokenizer.Tokenizer satisfies it.
type Encoder interface {
	TextToIDs(text, language string) ([]int, error)
}

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and output size of a single encoding run.
type RunResult struct {
	Index        int
	Cold         bool // true for the first run
	Duration     time.Duration
	Runes        int
	Tokens       int
	TokensPerSec float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}

	mn, mx := durations[0], durations[0]

	var sum time.Duration

	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}

	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Run encodes input runs times with enc and times every call. The context is
// checked between runs.
func Run(ctx context.Context, enc Encoder, input, language string, runs int) ([]RunResult, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", runs)
	}

	runes := utf8.RuneCountInString(input)
	results := make([]RunResult, 0, runs)

	for i := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()

		ids, err := enc.TextToIDs(input, language)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}

		dur := time.Since(start)

		results = append(results, RunResult{
			Index:        i,
			Cold:         i == 0,
			Duration:     dur,
			Runes:        runes,
			Tokens:       len(ids),
			TokensPerSec: CalcThroughput(len(ids), dur),
		})
	}

	return results, nil
}

// ---------------------------------------------------------------------------
// Throughput helpers
// ---------------------------------------------------------------------------

// CalcThroughput returns tokens per second.
// Returns 0 if d is zero to avoid division by zero.
func CalcThroughput(tokens int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}

	return float64(tokens) / d.Seconds()
}

// MeanThroughput averages TokensPerSec over runs.
func MeanThroughput(runs []RunResult) float64 {
	if len(runs) == 0 {
		return 0
	}

	var total float64
	for _, r := range runs {
		total += r.TokensPerSec
	}

	return total / float64(len(runs))
}

// ---------------------------------------------------------------------------
// Throughput gate
// ---------------------------------------------------------------------------

// CheckThroughputThreshold returns an error if mean < minimum.
// A minimum of 0 disables the gate.
func CheckThroughputThreshold(mean, minimum float64) error {
	if minimum <= 0 {
		return nil
	}

	if mean < minimum {
		return fmt.Errorf("mean throughput %.0f tokens/s is below threshold %.0f", mean, minimum)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

func micros(d time.Duration) float64 { return float64(d.Nanoseconds()) / 1e3 }

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %12s\n", "Run", "Cold", "µs", "Tokens", "Tokens/s")
	fmt.Fprintln(sb, strings.Repeat("-", 48))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}

		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %8d  %12.0f\n",
			r.Index+1,
			cold,
			micros(r.Duration),
			r.Tokens,
			r.TokensPerSec,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 48))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", micros(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", micros(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", micros(stats.Max))

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index        int     `json:"index"`
	Cold         bool    `json:"cold"`
	DurationUS   float64 `json:"duration_us"`
	Runes        int     `json:"runes"`
	Tokens       int     `json:"tokens"`
	TokensPerSec float64 `json:"tokens_per_sec"`
}

type jsonStats struct {
	MinUS            float64 `json:"min_us"`
	MeanUS           float64 `json:"mean_us"`
	MaxUS            float64 `json:"max_us"`
	MeanTokensPerSec float64 `json:"mean_tokens_per_sec"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinUS:            micros(stats.Min),
			MeanUS:           micros(stats.Mean),
			MaxUS:            micros(stats.Max),
			MeanTokensPerSec: MeanThroughput(runs),
		},
	}

	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:        r.Index,
			Cold:         r.Cold,
			DurationUS:   micros(r.Duration),
			Runes:        r.Runes,
			Tokens:       r.Tokens,
			TokensPerSec: r.TokensPerSec,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
