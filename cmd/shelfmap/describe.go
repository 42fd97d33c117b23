package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDescribeCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <photo>",
		Short: "Suggest an item description for a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := deps().service.SuggestDescription(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}
