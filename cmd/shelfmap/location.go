package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLocationCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage locations pinned on a space photo",
	}
	cmd.AddCommand(newLocationAddCmd(deps), newLocationListCmd(deps), newLocationDeleteCmd(deps))
	return cmd
}

func newLocationAddCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <space-id> --x <0..1> --y <0..1>",
		Short: "Pin a location on the space photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, _ := cmd.Flags().GetFloat64("x")
			y, _ := cmd.Flags().GetFloat64("y")
			loc, err := deps().service.AddLocation(cmd.Context(), args[0], x, y)
			if err != nil {
				return fmt.Errorf("failed to add location: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%.2f, %.2f)\n", color.GreenString("added"), loc.ID, loc.X, loc.Y)
			return nil
		},
	}
	cmd.Flags().Float64("x", 0, "horizontal position as a fraction of the photo width")
	cmd.Flags().Float64("y", 0, "vertical position as a fraction of the photo height")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newLocationListCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list <space-id>",
		Aliases: []string{"ls"},
		Short:   "List the location markers of a space",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markers, err := deps().service.SpaceMarkers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range markers {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%.2f, %.2f) %d items\n", color.CyanString(m.ID), m.X, m.Y, m.ItemCount)
			}
			return nil
		},
	}
}

func newLocationDeleteCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <space-id> <location-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a location and its items",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps().service.DeleteLocation(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to delete location: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("deleted"), args[1])
			return nil
		},
	}
}
