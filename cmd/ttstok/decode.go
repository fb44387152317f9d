package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [id...]",
		Short: "Convert token IDs back to symbols",
		Long:  "Convert token IDs back to symbols. IDs come from the arguments or, when none are given, from stdin separated by whitespace or commas.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, _, err := newTokenizer()
			if err != nil {
				return err
			}

			fields := args
			if len(fields) == 0 {
				raw, err := readInput("", cmd.InOrStdin())
				if err != nil {
					return err
				}

				fields = strings.FieldsFunc(raw, func(r rune) bool {
					return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
				})
			}

			ids, err := parseIDs(fields)
			if err != nil {
				return err
			}

			decoded, err := tok.IDsToText(ids)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), decoded)

			return err
		},
	}

	return cmd
}

func parseIDs(fields []string) ([]int, error) {
	ids := make([]int, 0, len(fields))

	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), "[],")
		if f == "" {
			continue
		}

		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", f, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
