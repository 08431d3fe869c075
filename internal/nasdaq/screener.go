package nasdaq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wizzomafizzo/divscan/internal/constants"
)

// ErrNoRows is returned when the screener response holds no rows
var ErrNoRows = errors.New("screener returned no rows")

// ScreenerResponse is the subset of the screener payload divscan reads
type ScreenerResponse struct {
	Data *ScreenerData `json:"data"`
}

type ScreenerData struct {
	Rows []ScreenerRow `json:"rows"`
}

type ScreenerRow struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	MarketCap string `json:"marketCap"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	Country   string `json:"country"`
}

// Rows returns the screener rows, tolerating a null data object
func (r *ScreenerResponse) Rows() []ScreenerRow {
	if r == nil || r.Data == nil {
		return nil
	}
	return r.Data.Rows
}

// Symbol is a screened stock kept for the dataset
type Symbol struct {
	Symbol    string
	Sector    string
	MarketCap float64
}

// FetchScreener downloads the full stock screener
func (c *Client) FetchScreener(ctx context.Context) (*ScreenerResponse, error) {
	var resp ScreenerResponse
	if err := c.getter.GetJSON(ctx, c.screenerURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch screener: %w", err)
	}
	return &resp, nil
}

// Probe returns the first screener row as raw JSON
func (c *Client) Probe(ctx context.Context) (json.RawMessage, error) {
	var resp struct {
		Data *struct {
			Rows []json.RawMessage `json:"rows"`
		} `json:"data"`
	}
	if err := c.getter.GetJSON(ctx, c.screenerURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch screener: %w", err)
	}
	if resp.Data == nil || len(resp.Data.Rows) == 0 {
		return nil, ErrNoRows
	}
	return resp.Data.Rows[0], nil
}

// ExtractSymbols keeps rows with a symbol and a market cap of at least minMarketCap
func ExtractSymbols(resp *ScreenerResponse, minMarketCap float64) []Symbol {
	rows := resp.Rows()
	symbols := make([]Symbol, 0, len(rows))
	for _, row := range rows {
		symbol := strings.TrimSpace(row.Symbol)
		if symbol == "" {
			continue
		}

		marketCap := ParseMarketCap(row.MarketCap)
		if marketCap < minMarketCap {
			continue
		}

		sector := strings.TrimSpace(row.Sector)
		if sector == "" {
			sector = constants.UnknownSector
		}

		symbols = append(symbols, Symbol{
			Symbol:    symbol,
			Sector:    sector,
			MarketCap: marketCap,
		})
	}
	return symbols
}

// ParseMarketCap parses values like "3,400,000,000.00" or "$293,500,000";
// empty or malformed input yields 0.
func ParseMarketCap(s string) float64 {
	clean := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
