package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// projectRoot walks up from the working directory to the directory holding go.mod
func projectRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	root := wd
	for {
		if _, statErr := os.Stat(filepath.Join(root, "go.mod")); statErr == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatal("Could not find project root (go.mod)")
		}
		root = parent
	}
}

// GetTestdataPath returns the full path to a testdata file
func GetTestdataPath(t *testing.T, relativePath string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "testdata", relativePath)
}

// LoadTestdataFile loads a file from the testdata directory
func LoadTestdataFile(t *testing.T, relativePath string) []byte {
	t.Helper()

	fullPath := GetTestdataPath(t, relativePath)
	content, err := os.ReadFile(fullPath) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatalf("Failed to load testdata file %s: %v", relativePath, err)
	}

	return content
}

// LoadTestdataString loads a file from testdata as a string
func LoadTestdataString(t *testing.T, relativePath string) string {
	t.Helper()
	return string(LoadTestdataFile(t, relativePath))
}
