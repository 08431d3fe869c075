package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// createProbeCommand creates the probe command.
func createProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Print the first screener row to check the NASDAQ API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, ws, err := loadWorkspaceFromCommand(cmd)
			if err != nil {
				return err
			}

			client, err := ws.NasdaqClient(nil)
			if err != nil {
				return err
			}
			row, err := client.Probe(ctx)
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, row, "", "  "); err != nil {
				return fmt.Errorf("failed to format response: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
}
