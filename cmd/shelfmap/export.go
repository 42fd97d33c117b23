package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbonduro/shelfmap/internal/export"
)

func newExportCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all spaces as JSON or a YAML backup",
		Long: `Export all spaces, locations and items.

Examples:
  # Print the stored document
  shelfmap export --format json

  # Save a YAML backup
  shelfmap export --format yaml --output shelfmap-backup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != export.FormatJSON && format != export.FormatYAML {
				return fmt.Errorf("unsupported format: %s (use 'json' or 'yaml')", format)
			}

			spaces, err := deps().service.ListSpaces(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list spaces: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			output, _ := cmd.Flags().GetString("output")
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				w = f
			}

			err = export.Write(w, spaces, format, time.Now())
			if f, ok := w.(*os.File); ok && output != "" {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("failed to close output file: %w", cerr)
				}
			}
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d spaces to %s\n", len(spaces), output)
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", export.FormatJSON, "output format (json, yaml)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	return cmd
}
