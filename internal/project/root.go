// Package project locates the divscan workspace directory.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wizzomafizzo/divscan/internal/constants"
)

// HomeEnv overrides workspace discovery when set to an existing directory
const HomeEnv = "DIVSCAN_HOME"

// FindRoot returns the workspace: $DIVSCAN_HOME, else the nearest ancestor of
// the working directory holding divscan.yml, else the working directory.
func FindRoot() (string, error) {
	if root, found := checkHomeDir(); found {
		return root, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	if root, found := FindMarkerFrom(cwd); found {
		return root, nil
	}
	return cwd, nil
}

// ResolvePath makes path absolute relative to root; absolute paths are kept
func ResolvePath(root, path string) string {
	if path == "" {
		return root
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// FindMarkerFrom walks up from startDir looking for a directory holding divscan.yml
func FindMarkerFrom(startDir string) (string, bool) {
	currentDir := startDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, constants.ConfigFilename)); err == nil {
			return currentDir, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func checkHomeDir() (string, bool) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		return "", false
	}

	abs, err := filepath.Abs(home)
	if err != nil {
		return "", false
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return abs, true
}
