package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-ttstok/internal/text"
)

func newTokenizeCmd() *cobra.Command {
	var (
		input     string
		language  string
		maxTokens int
		maxChars  int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Convert text to token IDs",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			normalized, err := text.Normalize(raw)
			if err != nil {
				return err
			}

			var chunks []text.Chunk

			for _, piece := range text.ChunkBySentence(normalized, maxChars) {
				part, err := text.ChunkByTokens(piece, language, tok, maxTokens)
				if err != nil {
					return err
				}

				chunks = append(chunks, part...)
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)

				return enc.Encode(struct {
					Chunks   []text.Chunk `json:"chunks"`
					NotFound []string     `json:"not_found"`
				}{chunks, tok.NotFoundCharacters()})
			}

			for _, c := range chunks {
				if _, err := fmt.Fprintln(out, formatIDs(c.IDs)); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to tokenize (reads stdin when empty)")
	cmd.Flags().StringVar(&language, "language", "", "Request language (defaults to --phoneme-language)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Split at sentence boundaries into chunks of at most N IDs (0 disables)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Split at sentence boundaries into pieces of at most N bytes before --max-tokens (0 disables)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print chunks and not-found characters as JSON")

	return cmd
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return strings.Join(parts, " ")
}
