package main

import (
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelfmap/internal/config"
)

// newRootCmd builds the command tree. The returned func releases whatever
// the executed command opened and must be called after Execute.
func newRootCmd() (*cobra.Command, func()) {
	var a *app

	// deps is resolved lazily so subcommands can be built before setup runs.
	deps := func() *app { return a }

	root := &cobra.Command{
		Use:   "shelfmap",
		Short: "Remember where things are stored",
		Long: `Shelfmap keeps photos of storage spaces, pins locations on them,
and records which items sit at each location.

Examples:
  shelfmap space create "Closet" --photo ~/Pictures/closet.jpg
  shelfmap location add <space-id> --x 0.5 --y 0.4
  shelfmap item add <space-id> <location-id> --photo scarf.jpg --description "red scarf"
  shelfmap search scarf
  shelfmap serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(config.Load())
			return err
		},
	}

	root.AddCommand(
		newServeCmd(deps),
		newSpaceCmd(deps),
		newLocationCmd(deps),
		newItemCmd(deps),
		newSearchCmd(deps),
		newExportCmd(deps),
		newDescribeCmd(deps),
		newIDCmd(deps),
	)
	return root, func() {
		if a != nil {
			a.close()
		}
	}
}
