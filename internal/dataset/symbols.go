package dataset

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
)

// SymbolRecord is one row of all_symbols.csv
type SymbolRecord struct {
	Symbol    string
	MarketCap string
	Sector    string
}

// MarketCapValue parses the market cap column. NaN and infinities are not
// treated as numbers.
func (r SymbolRecord) MarketCapValue() (float64, bool) {
	v, err := strconv.ParseFloat(r.MarketCap, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// WriteSymbols writes all_symbols.csv
func (s *Store) WriteSymbols(symbols []nasdaq.Symbol) error {
	records := make([][]string, 0, len(symbols))
	for _, sym := range symbols {
		records = append(records, []string{
			sym.Symbol,
			strconv.FormatFloat(sym.MarketCap, 'f', 2, 64),
			sym.Sector,
		})
	}
	return s.writeCSV(s.Path(constants.SymbolsFile), constants.SymbolHeader(), records)
}

// ReadSymbols reads all_symbols.csv by column name. Rows without a symbol are skipped.
func (s *Store) ReadSymbols() ([]SymbolRecord, error) {
	header, records, err := s.readCSV(s.Path(constants.SymbolsFile))
	if err != nil {
		return nil, err
	}

	idx := columnIndex(header)
	if _, ok := idx[constants.ColumnSymbol]; !ok && header != nil {
		return nil, fmt.Errorf("%s has no %s column", constants.SymbolsFile, constants.ColumnSymbol)
	}

	symbols := make([]SymbolRecord, 0, len(records))
	for _, record := range records {
		symbol, _ := field(record, idx, constants.ColumnSymbol)
		if symbol == "" {
			continue
		}
		marketCap, _ := field(record, idx, constants.ColumnMarketCap)
		sector, ok := field(record, idx, constants.ColumnSector)
		if !ok {
			sector = constants.UnknownSector
		}
		symbols = append(symbols, SymbolRecord{Symbol: symbol, MarketCap: marketCap, Sector: sector})
	}
	return symbols, nil
}

// ReadSymbolNames returns the symbols of all_symbols.csv in file order
func (s *Store) ReadSymbolNames() ([]string, error) {
	records, err := s.ReadSymbols()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Symbol)
	}
	return names, nil
}

// SectorsBySymbol maps each symbol of all_symbols.csv to its sector
func (s *Store) SectorsBySymbol() (map[string]string, error) {
	records, err := s.ReadSymbols()
	if err != nil {
		return nil, err
	}
	sectors := make(map[string]string, len(records))
	for _, r := range records {
		sectors[r.Symbol] = r.Sector
	}
	return sectors, nil
}
