package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/app"
	"github.com/wizzomafizzo/divscan/internal/dashboard"
	"github.com/wizzomafizzo/divscan/internal/report"
)

// createListCommand creates the list command.
func createListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the dividend stock table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			column, err := cmd.Flags().GetString("sort")
			if err != nil {
				return err
			}
			if !dashboard.ValidSortColumn(column) {
				return fmt.Errorf("unknown sort column %q", column)
			}
			asc, err := cmd.Flags().GetBool("asc")
			if err != nil {
				return err
			}

			opts, err := optionsFromCommand(cmd)
			if err != nil {
				return err
			}
			ws, err := app.LoadWorkspace(opts)
			if err != nil {
				return err
			}

			rows, err := dashboard.Load(ws.Fs(), ws.DataDir)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no dataset in %s, run the pipeline first: %w", ws.DataDir, err)
			}
			if err != nil {
				return err
			}

			dashboard.Sort(rows, column, !asc)
			report.Stocks(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringP("sort", "s", dashboard.SortMarketCap, "Sort column: symbol, sector or market_cap")
	cmd.Flags().Bool("asc", false, "Sort ascending")
	return cmd
}
