package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestCreateRootCommand(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()

	if cmd.Use != "divscan" {
		t.Errorf("Expected command use 'divscan', got '%s'", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("Expected non-empty short description")
	}
}

func TestNewRootCommandShowsHelp(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Expected root command to execute successfully, got: %v", err)
	}
	if !strings.Contains(buf.String(), "Available Commands") {
		t.Errorf("Expected help output to contain 'Available Commands', got: %s", buf.String())
	}
}

func TestNewRootCommandHasAllSubcommands(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()

	for _, name := range []string{
		"init", "validate", "symbols", "dividends", "filter", "prices",
		"run", "schedule", "serve", "list", "probe", "status",
	} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil {
			t.Errorf("Expected %s command to exist, got error: %v", name, err)
			continue
		}
		if sub.Name() != name {
			t.Errorf("Expected command name '%s', got '%s'", name, sub.Name())
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()

	config := cmd.PersistentFlags().Lookup("config")
	if config == nil {
		t.Fatal("Expected config flag")
	}
	if config.Shorthand != "c" || config.DefValue != "divscan.yml" {
		t.Errorf("Unexpected config flag: -%s default %s", config.Shorthand, config.DefValue)
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	if verbose == nil || verbose.Shorthand != "v" {
		t.Error("Expected verbose flag with shorthand v")
	}
}

func TestRunCommandRejectsUnknownStage(t *testing.T) {
	t.Parallel()

	cmd := createNewRootCommand()
	cmd.SetArgs([]string{"run", "bogus"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid argument") {
		t.Errorf("Expected invalid argument error, got: %v", err)
	}
}
