package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-ttstok/internal/phonemizer"
)

func newPhonemizeCmd() *cobra.Command {
	var (
		input     string
		language  string
		separator string
	)

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Print the phoneme string of text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
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

			if language == "" {
				return fmt.Errorf("phonemize requires --language or --phoneme-language")
			}

			name := cfg.Tokenizer.Phonemizer
			if name == "" {
				name, err = phonemizer.DefaultFor(language)
				if err != nil {
					return err
				}
			}

			b, err := phonemizer.New(name, phonemizer.Options{
				Language:     language,
				Punctuations: cfg.Phonemizer.Punctuations,
				KeepPuncs:    cfg.Phonemizer.KeepPuncs,
			})
			if err != nil {
				return err
			}

			phonemes, err := b.Phonemize(raw, separator)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), phonemes)

			return err
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to phonemize (reads stdin when empty)")
	cmd.Flags().StringVar(&language, "language", "", "Language code (defaults to --phoneme-language)")
	cmd.Flags().StringVar(&separator, "separator", "|", "Separator placed between phoneme units")

	return cmd
}
