package main

import (
	"fmt"
	"strings"

	"github.com/folio-cms/folio/internal/page"
	"github.com/spf13/cobra"
)

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write default content for areas that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := page.Seed(cmd.Context(), c.backend.Store)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to seed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded: %s\n", strings.Join(created, ", "))
			return nil
		},
	}
}
