package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/report"
)

// createStatusCommand creates the status command.
func createStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the dataset files and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			ctx, a, err := createAppFromCommand(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			printField(out, "data dir", a.DataDir)

			files, err := report.Inventory(a.Store())
			if err != nil {
				return err
			}
			report.Files(out, files)

			cached, err := a.Cache().Count(ctx)
			if err != nil {
				return fmt.Errorf("failed to count cache entries: %w", err)
			}
			printField(out, "cached", fmt.Sprintf("%d responses", cached))

			runs, err := a.History().Recent(ctx, limit)
			if err != nil {
				return err
			}
			report.Runs(out, runs)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of recent runs to show")
	return cmd
}
