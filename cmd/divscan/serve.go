package main

import (
	"github.com/spf13/cobra"
)

// createServeCommand creates the serve command.
func createServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dividend stock dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := cmd.Flags().GetString("addr")
			if err != nil {
				return err
			}
			watch, err := cmd.Flags().GetBool("watch")
			if err != nil {
				return err
			}

			ctx, ws, err := loadWorkspaceFromCommand(cmd)
			if err != nil {
				return err
			}

			srv := ws.Dashboard(addr, watch)
			if addr == "" {
				addr = ws.Config.Dashboard.Addr
			}
			printSuccess(cmd.OutOrStdout(), "Dashboard on http://%s", addr)
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from dashboard.addr)")
	cmd.Flags().Bool("watch", true, "Reload when the data files change")
	return cmd
}
