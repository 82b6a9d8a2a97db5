package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWarmCmd(opts *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Refresh the configured warmup items once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.warmer.Jobs() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no warmup items configured")
				return nil
			}
			if err := a.warmer.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d items\n", a.warmer.Jobs())
			return nil
		},
	}
}
