package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelfmap/internal/service"
	"github.com/vbonduro/shelfmap/internal/ui"
)

func newItemCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"i"},
		Short:   "Manage items stored at a location",
	}
	cmd.AddCommand(
		newItemAddCmd(deps),
		newItemEditCmd(deps),
		newItemDeleteCmd(deps),
		newItemMoveCmd(deps),
	)
	return cmd
}

func newItemAddCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <space-id> <location-id> --photo <path> [--description <text> | --suggest]",
		Short: "Add an item to a location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := deps().service
			photo, _ := cmd.Flags().GetString("photo")

			description, err := itemDescription(cmd, svc, photo)
			if err != nil {
				return err
			}

			item, err := svc.AddItem(cmd.Context(), args[0], args[1], photo, description)
			if err != nil {
				return fmt.Errorf("failed to add item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("added"), ui.FormatItem(item, time.Now()))
			return nil
		},
	}
	cmd.Flags().String("photo", "", "photo of the item (path or file:// URI)")
	cmd.Flags().String("description", "", "what the item is")
	cmd.Flags().Bool("suggest", false, "ask the vision backend for a description")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

func newItemEditCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <space-id> <location-id> <item-id> --description <text> [--photo <path>]",
		Short: "Replace an item's description and optionally its photo",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := deps().service
			spaceID, locationID, itemID := args[0], args[1], args[2]

			photo, _ := cmd.Flags().GetString("photo")
			if photo == "" {
				photo = currentPhoto(cmd.Context(), svc, spaceID, locationID, itemID)
			}
			description, _ := cmd.Flags().GetString("description")

			item, err := svc.UpdateItem(cmd.Context(), spaceID, locationID, itemID, photo, description)
			if err != nil {
				return fmt.Errorf("failed to update item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("updated"), ui.FormatItem(item, time.Now()))
			return nil
		},
	}
	cmd.Flags().String("photo", "", "new photo of the item")
	cmd.Flags().String("description", "", "what the item is")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newItemDeleteCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <space-id> <location-id> <item-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an item and its photo",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps().service.DeleteItem(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return fmt.Errorf("failed to delete item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.RedString("deleted"), args[2])
			return nil
		},
	}
}

func newItemMoveCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "move <space-id> <location-id> <item-id> --to-space <id> --to-location <id>",
		Aliases: []string{"mv"},
		Short:   "Move an item to another location",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			toSpace, _ := cmd.Flags().GetString("to-space")
			toLocation, _ := cmd.Flags().GetString("to-location")
			if toSpace == "" {
				toSpace = args[0]
			}

			if err := deps().service.MoveItem(cmd.Context(), args[0], args[1], args[2], toSpace, toLocation); err != nil {
				return fmt.Errorf("failed to move item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s/%s\n", color.GreenString("moved"), args[2], toSpace, toLocation)
			return nil
		},
	}
	cmd.Flags().String("to-space", "", "destination space (default: same space)")
	cmd.Flags().String("to-location", "", "destination location")
	_ = cmd.MarkFlagRequired("to-location")
	return cmd
}

// itemDescription returns --description, or a suggestion from the vision
// backend when --suggest is set and no description was given.
func itemDescription(cmd *cobra.Command, svc *service.SpaceService, photo string) (string, error) {
	description, _ := cmd.Flags().GetString("description")
	suggest, _ := cmd.Flags().GetBool("suggest")
	if description != "" || !suggest {
		return description, nil
	}

	desc, err := svc.SuggestDescription(cmd.Context(), photo)
	if err != nil {
		return "", fmt.Errorf("failed to suggest description: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.Faint).Sprint("suggested:"), desc)
	return desc, nil
}

// currentPhoto returns the item's stored photo path, or "" if it cannot be
// resolved. UpdateItem reports the missing item.
func currentPhoto(ctx context.Context, svc *service.SpaceService, spaceID, locationID, itemID string) string {
	space, err := svc.GetSpace(ctx, spaceID)
	if err != nil {
		return ""
	}
	loc := space.Location(locationID)
	if loc == nil {
		return ""
	}
	if item := loc.Item(itemID); item != nil {
		return item.PhotoPath
	}
	return ""
}
