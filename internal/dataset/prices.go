package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/yahoo"
)

const dateLayout = "2006-01-02"

// WritePrices writes daily_stocks_price/<symbol>.csv with prices rounded to 3 decimals
func (s *Store) WritePrices(symbol string, bars []yahoo.Bar) error {
	records := make([][]string, 0, len(bars))
	for _, bar := range bars {
		records = append(records, []string{
			bar.Date.Format(dateLayout),
			formatPrice(bar.Low),
			formatPrice(bar.High),
			formatPrice(bar.Close),
			strconv.FormatInt(bar.Volume, 10),
		})
	}
	return s.writeCSV(s.pricePath(symbol), constants.PriceHeader(), records)
}

// ReadPrices reads the daily price history of symbol
func (s *Store) ReadPrices(symbol string) ([]yahoo.Bar, error) {
	_, records, err := s.readCSV(s.pricePath(symbol))
	if err != nil {
		return nil, err
	}

	bars := make([]yahoo.Bar, 0, len(records))
	for i, r := range records {
		bar, err := parseBar(r)
		if err != nil {
			return nil, fmt.Errorf("prices for %s, row %d: %w", symbol, i+2, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// ListPriceFiles returns the symbols that have a price file, sorted
func (s *Store) ListPriceFiles() ([]string, error) {
	return s.listSymbols(constants.PriceDir)
}

func (s *Store) pricePath(symbol string) string {
	return s.Path(constants.PriceDir, FileStem(symbol)+constants.CSVExt)
}

func parseBar(r []string) (yahoo.Bar, error) {
	if len(r) < len(constants.PriceHeader()) {
		return yahoo.Bar{}, fmt.Errorf("expected %d columns, got %d", len(constants.PriceHeader()), len(r))
	}

	date, err := time.Parse(dateLayout, r[0])
	if err != nil {
		return yahoo.Bar{}, fmt.Errorf("invalid date %q: %w", r[0], err)
	}

	var values [3]float64
	for i := range values {
		v, err := strconv.ParseFloat(r[i+1], 64)
		if err != nil {
			return yahoo.Bar{}, fmt.Errorf("invalid price %q: %w", r[i+1], err)
		}
		values[i] = v
	}

	volume, err := strconv.ParseInt(r[4], 10, 64)
	if err != nil {
		return yahoo.Bar{}, fmt.Errorf("invalid volume %q: %w", r[4], err)
	}

	return yahoo.Bar{Date: date, Low: values[0], High: values[1], Close: values[2], Volume: volume}, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', 3, 64)
}
