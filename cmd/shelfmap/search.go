package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/shelfmap/internal/ui"
)

func newSearchCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Aliases: []string{"find"},
		Short:   "Find items by description",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := deps().service.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No matching items.")
				return nil
			}
			for _, r := range results {
				fmt.Fprintln(out, ui.FormatSearchResult(r))
			}
			return nil
		},
	}
}

func newIDCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print a new identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), deps().service.GenerateID())
			return nil
		},
	}
}
