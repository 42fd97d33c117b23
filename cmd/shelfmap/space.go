package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelfmap/internal/ui"
)

func newSpaceCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "space",
		Aliases: []string{"s"},
		Short:   "Manage storage spaces",
	}
	cmd.AddCommand(
		newSpaceCreateCmd(deps),
		newSpaceListCmd(deps),
		newSpaceShowCmd(deps),
		newSpaceRenameCmd(deps),
		newSpaceDeleteCmd(deps),
	)
	return cmd
}

func newSpaceCreateCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title> --photo <path>",
		Short: "Create a space from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, _ := cmd.Flags().GetString("photo")
			space, err := deps().service.CreateSpace(cmd.Context(), args[0], photo)
			if err != nil {
				return fmt.Errorf("failed to create space: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("created"), ui.FormatSpace(space))
			return nil
		},
	}
	cmd.Flags().String("photo", "", "photo of the space (path or file:// URI)")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

func newSpaceListCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all spaces",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spaces, err := deps().service.ListSpaces(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list spaces: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(spaces) == 0 {
				fmt.Fprintln(out, "No spaces yet. Use 'shelfmap space create' to add one.")
				return nil
			}
			for _, space := range spaces {
				fmt.Fprintln(out, ui.FormatSpace(space))
			}
			return nil
		},
	}
}

func newSpaceShowCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <space-id>",
		Short: "Show a space with its locations and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := deps().service
			space, err := svc.GetSpace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sections, err := svc.SpaceSections(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.FormatSpace(space))
			fmt.Fprintln(out, ui.FormatSections(sections, time.Now()))
			return nil
		},
	}
}

func newSpaceRenameCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <space-id> <title>",
		Short: "Rename a space",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps().service.RenameSpace(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to rename space: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("renamed"), args[0])
			return nil
		},
	}
}

func newSpaceDeleteCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <space-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a space with all its locations, items and photos",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps().service.DeleteSpace(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete space: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("deleted"), args[0])
			return nil
		},
	}
}
