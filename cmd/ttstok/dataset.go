package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-ttstok/internal/dataset"
	"github.com/example/go-ttstok/internal/tokenizer"
)

func newDatasetCmd() *cobra.Command {
	var (
		out string
		pad bool
	)

	cmd := &cobra.Command{
		Use:   "dataset <metadata-file>",
		Short: "Encode a metadata file to token IDs",
		Long: "Encode every sample of a metadata file (ljspeech, coqui or plain) and write one JSON line " +
			"per sample. Format, worker count and default language come from the dataset settings.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, cfg, err := newTokenizer()
			if err != nil {
				return err
			}

			format, err := dataset.ParseFormat(cfg.Dataset.Format)
			if err != nil {
				return err
			}

			language := cfg.Dataset.Language
			if language == "" {
				language = cfg.Tokenizer.PhonemeLanguage
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open metadata: %w", err)
			}
			defer func() { _ = f.Close() }()

			samples, err := dataset.Load(f, format, language)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			encoded, stats, err := dataset.Encode(cmd.Context(), tok, samples, cfg.Dataset.Workers)
			if err != nil {
				return err
			}

			if pad {
				if err := padEncoded(encoded, tok.PadID()); err != nil {
					return err
				}
			}

			if out == "" || out == "-" {
				if err := writeEncoded(cmd.OutOrStdout(), encoded); err != nil {
					return err
				}
			} else if err := writeEncodedFile(out, encoded); err != nil {
				return err
			}

			slog.Info("dataset encoded",
				slog.String("metadata", args[0]),
				slog.Int("samples", stats.Samples),
				slog.Int("tokens", stats.Tokens),
				slog.Int("max_len", stats.MaxLen),
				slog.Any("not_found", stats.NotFound),
			)

			if out != "" && out != "-" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "encoded %d samples (%d tokens, max length %d) to %s\n",
					stats.Samples, stats.Tokens, stats.MaxLen, out)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output JSONL path (stdout when empty or -)")
	cmd.Flags().BoolVar(&pad, "pad", false, "Right-pad every sample with the pad ID to the longest sample")

	return cmd
}

// padEncoded pads the IDs of every sample in place to the batch maximum.
func padEncoded(encoded []dataset.Encoded, padID int) error {
	if padID < 0 {
		return errors.New("pad: vocabulary has no pad symbol")
	}

	seqs := make([][]int, len(encoded))
	for i, e := range encoded {
		seqs[i] = e.IDs
	}

	for i, row := range tokenizer.PadBatch(seqs, padID) {
		encoded[i].IDs = row
	}

	return nil
}

func writeEncodedFile(path string, encoded []dataset.Encoded) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := writeEncoded(f, encoded); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func writeEncoded(w io.Writer, encoded []dataset.Encoded) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for _, e := range encoded {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write sample %s: %w", e.ID, err)
		}
	}

	return bw.Flush()
}
