// Package dataset reads and writes the workspace data files.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/divscan/internal/constants"
)

// Store reads and writes data files under a workspace directory
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a store rooted at dir
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Dir returns the workspace directory
func (s *Store) Dir() string {
	return s.dir
}

// Fs returns the underlying filesystem
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Path joins elem onto the workspace directory
func (s *Store) Path(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

// EnsureDir creates a workspace subdirectory
func (s *Store) EnsureDir(name string) error {
	if err := s.fs.MkdirAll(s.Path(name), 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a workspace file or directory exists
func (s *Store) Exists(name string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.Path(name))
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return ok, nil
}

// FileStem maps a ticker to its data file name without extension; share
// classes like BRK/A contain a slash
func FileStem(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "_")
}

// symbolFromFile reverses FileStem
func symbolFromFile(name string) string {
	return strings.ReplaceAll(strings.TrimSuffix(name, filepath.Ext(name)), "_", "/")
}

// writeCSV renders records and writes them in one call so readers never see a partial file
func (s *Store) writeCSV(path string, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// readCSV returns the header and data records of a CSV file
func (s *Store) readCSV(path string) ([]string, [][]string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return header, records, nil
}

// columnIndex maps header names to positions
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return idx
}

func field(record []string, idx map[string]int, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return "", false
	}
	return record[i], true
}

// listSymbols returns the symbols of the CSV files in dir, sorted
func (s *Store) listSymbols(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.Path(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	symbols := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constants.CSVExt) {
			continue
		}
		symbols = append(symbols, symbolFromFile(entry.Name()))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// RemoveFile deletes a workspace file
func (s *Store) RemoveFile(elem ...string) error {
	if err := s.fs.Remove(s.Path(elem...)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Join(elem...), err)
	}
	return nil
}
