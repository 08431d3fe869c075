package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"github.com/wizzomafizzo/divscan/internal/scheduler"
)

func noopJob(context.Context) error { return nil }

// createScheduleCommand creates the schedule command.
func createScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the full pipeline on the configured cron schedule",
		Long:  "Run every pipeline stage whenever schedule.cron fires, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := cmd.Flags().GetBool("now")
			if err != nil {
				return err
			}

			ctx, a, err := createAppFromCommand(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			loc, err := a.Config.Schedule.Location()
			if err != nil {
				return err
			}

			job := func(ctx context.Context) error {
				return runPipeline(ctx, a, nil)
			}
			sched, err := scheduler.New(a.Config.Schedule.Cron, loc, job)
			if err != nil {
				return err
			}

			if now {
				if err := job(ctx); err != nil {
					logging.Get(ctx).Error().Err(err).Msg("initial run failed")
					printWarning(cmd.ErrOrStderr(), "initial run failed: %v", err)
				}
			}

			printSuccess(cmd.OutOrStdout(), "Scheduled %q (%s), press Ctrl+C to stop", a.Config.Schedule.Cron, loc)
			return sched.Run(ctx)
		},
	}
	cmd.Flags().Bool("now", false, "Run the pipeline once before waiting for the schedule")
	return cmd
}
