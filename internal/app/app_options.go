package app

import (
	"io"

	"github.com/spf13/afero"
)

// Options configures New. Zero values select the production defaults.
type Options struct {
	// Fs backs the workspace files and the log directory; defaults to the OS filesystem
	Fs afero.Fs
	// LogWriter replaces the rotating log file
	LogWriter io.Writer
	// Console receives human readable log output when set
	Console io.Writer
	// ConfigPath is resolved against the workspace when relative
	ConfigPath string
	// WorkDir overrides workspace discovery
	WorkDir string
	// DatabaseDSN overrides the database in the XDG data directory
	DatabaseDSN string
}
