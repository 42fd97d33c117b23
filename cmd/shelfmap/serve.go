package main

import (
	"github.com/spf13/cobra"

	"github.com/vbonduro/shelfmap/internal/web"
)

func newServeCmd(deps func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			server := web.NewServer(a.service, a.photos, a.logger)
			return server.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default LISTEN_ADDR)")
	return cmd
}
