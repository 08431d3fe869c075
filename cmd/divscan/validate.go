package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/app"
	"github.com/wizzomafizzo/divscan/internal/scheduler"
)

// createValidateCommand creates the validate command.
func createValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long:  "Load the configuration with environment overrides applied and check every setting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := optionsFromCommand(cmd)
			if err != nil {
				return err
			}
			ws, err := app.LoadWorkspace(opts)
			if err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			loc, err := ws.Config.Schedule.Location()
			if err != nil {
				return fmt.Errorf("validation error: %w", err)
			}
			sched, err := scheduler.New(ws.Config.Schedule.Cron, loc, noopJob)
			if err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			out := cmd.OutOrStdout()
			if !ws.ConfigFound {
				printWarning(out, "No config file at %s, using defaults", ws.ConfigPath)
			}
			printSuccess(out, "Configuration is valid")
			printField(out, "config", ws.ConfigPath)
			printField(out, "data dir", ws.DataDir)
			printField(out, "next run", sched.Next(time.Now()).Format(time.RFC1123))

			show, err := cmd.Flags().GetBool("show")
			if err != nil {
				return err
			}
			if show {
				data, err := ws.Config.YAML()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "\n%s", data)
			}
			return nil
		},
	}
	cmd.Flags().Bool("show", false, "Print the effective configuration")
	return cmd
}
