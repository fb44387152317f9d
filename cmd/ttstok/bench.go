package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-ttstok/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		input       string
		language    string
		runs        int
		format      string
		minTokensPS float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenization latency and throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}

			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			tok, cfg, err := newTokenizer()
			if err != nil {
				return err
			}

			raw, err := readInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if language == "" {
				language = cfg.Tokenizer.PhonemeLanguage
			}

			results, err := bench.Run(cmd.Context(), tok, raw, language, runs)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}

			stats := bench.ComputeStats(durations)

			switch format {
			case "json":
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckThroughputThreshold(bench.MeanThroughput(results), minTokensPS)
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to encode on each run (reads stdin when empty)")
	cmd.Flags().StringVar(&language, "language", "", "Request language (defaults to --phoneme-language)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of encoding runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minTokensPS, "min-tokens-per-sec", 0, "Exit non-zero if mean throughput is below this value (0 = disabled)")

	return cmd
}
