// Package yahoo downloads daily price history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wizzomafizzo/divscan/internal/config"
	"github.com/wizzomafizzo/divscan/internal/fetch"
)

// ErrNoData is returned when the API has no price history for a symbol
var ErrNoData = errors.New("no price data found")

// Getter fetches and decodes a JSON document
type Getter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Bar is one trading day
type Bar struct {
	Date   time.Time `json:"date"`
	Low    float64   `json:"low"`
	High   float64   `json:"high"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Client reads the chart endpoint
type Client struct {
	getter   Getter
	chartURL string
	adjust   bool
}

// New creates a client. chartURL must contain the {symbol} placeholder.
// With adjust set, prices are scaled to the split and dividend adjusted close.
func New(getter Getter, chartURL string, adjust bool) *Client {
	return &Client{getter: getter, chartURL: chartURL, adjust: adjust}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Low    []*float64 `json:"low"`
			High   []*float64 `json:"high"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchDaily returns daily bars for symbol over period (for example "15y")
func (c *Client) FetchDaily(ctx context.Context, symbol, period string) ([]Bar, error) {
	var resp chartResponse
	if err := c.getter.GetJSON(ctx, c.endpoint(symbol, period), &resp); err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s: %w", symbol, resp.Chart.Error.Description, ErrNoData)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	bars := c.bars(&resp.Chart.Result[0])
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

func (c *Client) endpoint(symbol, period string) string {
	base := strings.ReplaceAll(c.chartURL, config.SymbolPlaceholder, url.PathEscape(symbol))

	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", "1d")
	params.Set("includeAdjustedClose", "true")
	params.Set("events", "div,split")

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}

func (c *Client) bars(result *chartResult) []Bar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		low, okLow := at(quote.Low, i)
		high, okHigh := at(quote.High, i)
		closePrice, okClose := at(quote.Close, i)
		volume, okVolume := at(quote.Volume, i)
		if !okLow || !okHigh || !okClose || !okVolume {
			continue
		}

		if c.adjust && closePrice != 0 {
			if adj, ok := at(adjClose, i); ok {
				ratio := adj / closePrice
				low *= ratio
				high *= ratio
				closePrice = adj
			}
		}

		t := time.Unix(ts, 0).In(loc)
		bars = append(bars, Bar{
			Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Low:    low,
			High:   high,
			Close:  closePrice,
			Volume: int64(volume),
		})
	}
	return bars
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// exchangeLocation prefers the named zone and falls back to the fixed offset
// when tzdata is unavailable
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}
