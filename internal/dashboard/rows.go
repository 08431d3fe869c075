// Package dashboard serves the dividend stock table over HTTP.
package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/dataset"
)

// Sortable columns
const (
	SortSymbol    = "symbol"
	SortSector    = "sector"
	SortMarketCap = "market_cap"
)

const billion = 1e9

// Row is one dividend stock in the table
type Row struct {
	// MarketCapValue is nil when the stored market cap is not a number
	MarketCapValue *float64 `json:"market_cap_value"`
	Symbol         string   `json:"symbol"`
	Sector         string   `json:"sector"`
	// MarketCap is the display value in billions, or the raw text when not numeric
	MarketCap string `json:"market_cap"`
}

// Load joins all_dividend_symbols.txt with all_symbols.csv. Dividend symbols
// missing from all_symbols.csv are left out.
func Load(fs afero.Fs, dir string) ([]Row, error) {
	return loadRows(dataset.New(fs, dir))
}

func loadRows(store *dataset.Store) ([]Row, error) {
	dividendSymbols, err := store.ReadDividendSymbols()
	if err != nil {
		return nil, err
	}
	symbols, err := store.ReadSymbols()
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]dataset.SymbolRecord, len(symbols))
	for _, s := range symbols {
		bySymbol[s.Symbol] = s
	}

	rows := make([]Row, 0, len(dividendSymbols))
	for _, ds := range dividendSymbols {
		rec, ok := bySymbol[ds.Symbol]
		if !ok {
			continue
		}

		sector := rec.Sector
		if sector == "" || sector == constants.UnknownSector {
			sector = ds.Sector
		}

		row := Row{Symbol: rec.Symbol, Sector: sector, MarketCap: rec.MarketCap}
		if v, ok := rec.MarketCapValue(); ok {
			row.MarketCapValue = &v
			row.MarketCap = fmt.Sprintf("%.0f", v/billion)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ValidSortColumn reports whether rows can be sorted by column
func ValidSortColumn(column string) bool {
	switch column {
	case SortSymbol, SortSector, SortMarketCap:
		return true
	default:
		return false
	}
}

// Sort orders rows in place. Market cap sorts numerically with non-numeric
// values last in either direction; other columns sort lexically. Unknown
// columns sort by symbol.
func Sort(rows []Row, column string, desc bool) {
	if column == SortMarketCap {
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].MarketCapValue, rows[j].MarketCapValue
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			case desc:
				return *a > *b
			default:
				return *a < *b
			}
		})
		return
	}

	key := func(r Row) string { return r.Symbol }
	if column == SortSector {
		key = func(r Row) string { return r.Sector }
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := strings.Compare(key(rows[i]), key(rows[j]))
		if desc {
			return c > 0
		}
		return c < 0
	})
}
