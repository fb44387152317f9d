package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-ttstok/internal/phonemizer"
)

func newPhonemizersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phonemizers",
		Short: "List registered phonemizer backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tLANGUAGES\tCHARACTERS\tVERSION\tAVAILABLE")

			for _, info := range phonemizer.Describe() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
					info.Name, strings.Join(info.Languages, ","), info.Characters, info.Version, info.Available)
			}

			return tw.Flush()
		},
	}
}
