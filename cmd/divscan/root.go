package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/app"
	"github.com/wizzomafizzo/divscan/internal/constants"
)

// createNewRootCommand creates the main root command that shows help by default.
func createNewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Dividend stock dataset builder",
		Long:          "Build and browse a local dataset of US listed dividend paying stocks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", constants.ConfigFilename, "Path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also log to stderr")

	rootCmd.AddCommand(
		createInitCommand(),
		createValidateCommand(),
		createStageCommand("symbols", "Download the stock screener and write the symbol list"),
		createStageCommand("dividends", "Download the dividend history of every symbol"),
		createStageCommand("filter", "Keep symbols that pay dividends and delete empty files"),
		createStageCommand("prices", "Download daily prices of every dividend symbol"),
		createRunCommand(),
		createScheduleCommand(),
		createServeCommand(),
		createListCommand(),
		createProbeCommand(),
		createStatusCommand(),
	)

	return rootCmd
}

// optionsFromCommand reads the persistent flags into app options
func optionsFromCommand(cmd *cobra.Command) (app.Options, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return app.Options{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return app.Options{}, fmt.Errorf("failed to get verbose flag: %w", err)
	}

	opts := app.Options{ConfigPath: configPath}
	if verbose {
		opts.Console = cmd.ErrOrStderr()
	}
	return opts, nil
}

// loadWorkspaceFromCommand loads the workspace and logger without opening the database
func loadWorkspaceFromCommand(cmd *cobra.Command) (context.Context, *app.Workspace, error) {
	opts, err := optionsFromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}
	ws, err := app.LoadWorkspace(opts)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := ws.Logger(cmd.Context(), opts)
	if err != nil {
		return nil, nil, err
	}
	return ctx, ws, nil
}

// createAppFromCommand loads the workspace and opens the database; callers close the app
func createAppFromCommand(cmd *cobra.Command) (context.Context, *app.App, error) {
	opts, err := optionsFromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}
	return app.New(cmd.Context(), opts)
}
