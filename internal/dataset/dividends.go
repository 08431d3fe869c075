package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
)

// DividendSymbol is one line of all_dividend_symbols.txt
type DividendSymbol struct {
	Symbol string
	Sector string
}

// WriteDividends writes dividend_stocks/<symbol>.csv; an empty history writes only the header
func (s *Store) WriteDividends(symbol string, dividends []nasdaq.Dividend) error {
	records := make([][]string, 0, len(dividends))
	for _, d := range dividends {
		records = append(records, d.Record())
	}
	return s.writeCSV(s.dividendPath(symbol), constants.DividendHeader(), records)
}

// ReadDividends reads the dividend history of symbol
func (s *Store) ReadDividends(symbol string) ([]nasdaq.Dividend, error) {
	_, records, err := s.readCSV(s.dividendPath(symbol))
	if err != nil {
		return nil, err
	}
	dividends := make([]nasdaq.Dividend, 0, len(records))
	for _, r := range records {
		if len(r) < len(constants.DividendHeader()) {
			continue
		}
		dividends = append(dividends, nasdaq.Dividend{
			ExDate:          r[0],
			Type:            r[1],
			Amount:          r[2],
			DeclarationDate: r[3],
			RecordDate:      r[4],
			PaymentDate:     r[5],
			Currency:        r[6],
		})
	}
	return dividends, nil
}

func (s *Store) dividendPath(symbol string) string {
	return s.Path(constants.DividendDir, FileStem(symbol)+constants.CSVExt)
}

// ListDividendFiles returns the symbols that have a dividend file, sorted
func (s *Store) ListDividendFiles() ([]string, error) {
	return s.listSymbols(constants.DividendDir)
}

// HasDividendRows reports whether the dividend file of symbol holds more than its header
func (s *Store) HasDividendRows(symbol string) (bool, error) {
	f, err := s.fs.Open(s.dividendPath(symbol))
	if err != nil {
		return false, fmt.Errorf("failed to open dividends for %s: %w", symbol, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		lines++
		if lines > 1 {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read dividends for %s: %w", symbol, err)
	}
	return false, nil
}

// RemoveDividends deletes the dividend file of symbol
func (s *Store) RemoveDividends(symbol string) error {
	return s.RemoveFile(constants.DividendDir, FileStem(symbol)+constants.CSVExt)
}

// WriteDividendSymbols writes all_dividend_symbols.txt sorted by symbol
func (s *Store) WriteDividendSymbols(symbols []DividendSymbol) error {
	sorted := make([]DividendSymbol, len(symbols))
	copy(sorted, symbols)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	var buf bytes.Buffer
	for _, ds := range sorted {
		fmt.Fprintf(&buf, "%s,%s\n", ds.Symbol, ds.Sector)
	}

	path := s.Path(constants.DividendSymbolsFile)
	if err := afero.WriteFile(s.fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", constants.DividendSymbolsFile, err)
	}
	return nil
}

// ReadDividendSymbols reads all_dividend_symbols.txt. The first comma separated
// field is the symbol, so plain symbol-per-line files are accepted too.
func (s *Store) ReadDividendSymbols() ([]DividendSymbol, error) {
	f, err := s.fs.Open(s.Path(constants.DividendSymbolsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", constants.DividendSymbolsFile, err)
	}
	defer func() { _ = f.Close() }()

	var symbols []DividendSymbol
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		symbol, sector, found := strings.Cut(line, ",")
		sector = strings.TrimSpace(sector)
		if !found || sector == "" {
			sector = constants.UnknownSector
		}
		symbols = append(symbols, DividendSymbol{Symbol: strings.TrimSpace(symbol), Sector: sector})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", constants.DividendSymbolsFile, err)
	}
	return symbols, nil
}
