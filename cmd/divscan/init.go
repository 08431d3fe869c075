package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/divscan/internal/config"
	"github.com/wizzomafizzo/divscan/internal/prompt"
)

// newPrompter is replaced in tests
var newPrompter = prompt.NewLinerPrompter

// createInitCommand creates the init command.
func createInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long:  "Write a config file with every setting at its default value, or ask for the common ones with --interactive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return fmt.Errorf("failed to get force flag: %w", err)
			}
			interactive, err := cmd.Flags().GetBool("interactive")
			if err != nil {
				return fmt.Errorf("failed to get interactive flag: %w", err)
			}

			fs := afero.NewOsFs()
			exists, err := config.Exists(fs, configPath)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			}

			cfg := config.DefaultConfig()
			if interactive {
				p := newPrompter()
				err := interview(p, cmd.ErrOrStderr(), cfg)
				_ = p.Close()
				if err != nil {
					return err
				}
			}

			if err := cfg.Save(fs, configPath); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote %s", configPath)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolP("interactive", "i", false, "Ask for the main settings")
	return cmd
}

// interview asks for the settings most users change and applies them to cfg
func interview(p prompt.Prompter, errOut io.Writer, cfg *config.Config) error {
	answer, err := prompt.AskWithPrompter(p, errOut, "Data directory", cfg.DataDir, nil)
	if err != nil {
		return err
	}
	cfg.DataDir = answer

	answer, err = prompt.AskWithPrompter(p, errOut, "Minimum market cap (USD)",
		strconv.FormatFloat(cfg.Nasdaq.MinMarketCap, 'f', -1, 64), func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 {
				return errors.New("enter a non-negative number")
			}
			return nil
		})
	if err != nil {
		return err
	}
	cfg.Nasdaq.MinMarketCap, _ = strconv.ParseFloat(answer, 64)

	answer, err = prompt.AskWithPrompter(p, errOut, "Price history period", cfg.Prices.Period, func(s string) error {
		prices := cfg.Prices
		prices.Period = s
		return prices.Validate()
	})
	if err != nil {
		return err
	}
	cfg.Prices.Period = answer

	answer, err = prompt.AskWithPrompter(p, errOut, "Schedule (cron)", cfg.Schedule.Cron, func(s string) error {
		schedule := cfg.Schedule
		schedule.Cron = s
		return schedule.Validate()
	})
	if err != nil {
		return err
	}
	cfg.Schedule.Cron = answer

	answer, err = prompt.AskWithPrompter(p, errOut, "Schedule timezone", cfg.Schedule.Timezone, func(s string) error {
		schedule := cfg.Schedule
		schedule.Timezone = s
		_, err := schedule.Location()
		return err
	})
	if err != nil {
		return err
	}
	cfg.Schedule.Timezone = answer

	return cfg.Validate()
}
