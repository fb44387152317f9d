package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/go-ttstok/internal/tokenizer"
)

// vocabExport is the persisted form of a vocabulary.
type vocabExport struct {
	Size    int      `json:"size" yaml:"size"`
	PadID   int      `json:"pad_id" yaml:"pad_id"`
	BlankID int      `json:"blank_id" yaml:"blank_id"`
	BOSID   int      `json:"bos_id" yaml:"bos_id"`
	EOSID   int      `json:"eos_id" yaml:"eos_id"`
	Symbols []string `json:"symbols" yaml:"symbols"`
}

func newVocabCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the vocabulary of the configured character set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, _, err := newTokenizer()
			if err != nil {
				return err
			}

			return writeVocab(cmd.OutOrStdout(), tok, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text|json|yaml)")

	return cmd
}

func writeVocab(w io.Writer, tok *tokenizer.Tokenizer, format string) error {
	export := vocabExport{
		Size:    tok.Characters().Size(),
		PadID:   tok.PadID(),
		BlankID: tok.BlankID(),
		BOSID:   tok.BOSID(),
		EOSID:   tok.EOSID(),
		Symbols: tok.Characters().Vocab(),
	}

	switch strings.ToLower(format) {
	case "", "text":
		for id, sym := range export.Symbols {
			if _, err := fmt.Fprintf(w, "%d\t%q\n", id, sym); err != nil {
				return err
			}
		}

		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		return enc.Encode(export)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("invalid format %q (expected text|json|yaml)", format)
	}
}
