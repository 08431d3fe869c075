package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/app"
	"github.com/wizzomafizzo/divscan/internal/history"
	"github.com/wizzomafizzo/divscan/internal/pipeline"
	"github.com/wizzomafizzo/divscan/internal/report"
)

// createStageCommand creates a command running a single pipeline stage.
func createStageCommand(stage, short string) *cobra.Command {
	return &cobra.Command{
		Use:   stage,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStages(cmd, []string{stage})
		},
	}
}

// createRunCommand creates the run command.
func createRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "run [stages...]",
		Short:     "Run pipeline stages in order",
		Long:      "Run the given pipeline stages in order, or every stage when none are given",
		ValidArgs: pipeline.Stages(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, args)
		},
	}
}

func runStages(cmd *cobra.Command, stages []string) error {
	ctx, a, err := createAppFromCommand(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	start := time.Now()
	runErr := runPipeline(ctx, a, stages)

	runs, err := runsSince(ctx, a.History(), start)
	if err != nil {
		return err
	}
	report.Runs(cmd.OutOrStdout(), runs)

	if runErr != nil {
		return runErr
	}
	printSuccess(cmd.OutOrStdout(), "Done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// runPipeline purges stale cache entries and runs stages
func runPipeline(ctx context.Context, a *app.App, stages []string) error {
	p, err := a.Pipeline()
	if err != nil {
		return err
	}
	a.PurgeCache(ctx)
	if err := p.Run(ctx, stages...); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}

// runsSince returns the runs started at or after t, newest first
func runsSince(ctx context.Context, store *history.Store, t time.Time) ([]history.Run, error) {
	recent, err := store.Recent(ctx, len(pipeline.Stages()))
	if err != nil {
		return nil, err
	}
	cutoff := t.Truncate(time.Millisecond)
	runs := recent[:0]
	for _, r := range recent {
		if !r.StartedAt.Before(cutoff) {
			runs = append(runs, r)
		}
	}
	return runs, nil
}
