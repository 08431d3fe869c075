// Package nasdaq reads the NASDAQ stock screener and dividend history APIs.
package nasdaq

import (
	"context"
	"net/url"
	"strings"

	"github.com/wizzomafizzo/divscan/internal/config"
)

// Getter fetches and decodes a JSON document
type Getter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Client talks to api.nasdaq.com
type Client struct {
	getter       Getter
	screenerURL  string
	dividendsURL string
}

// New creates a client. dividendsURL must contain the {symbol} placeholder.
func New(getter Getter, screenerURL, dividendsURL string) *Client {
	return &Client{
		getter:       getter,
		screenerURL:  screenerURL,
		dividendsURL: dividendsURL,
	}
}

// NewFromConfig creates a client using the configured endpoints
func NewFromConfig(getter Getter, cfg config.NasdaqConfig) *Client {
	return New(getter, cfg.ScreenerURL, cfg.DividendsURL)
}

func (c *Client) dividendsEndpoint(symbol string) string {
	return strings.ReplaceAll(c.dividendsURL, config.SymbolPlaceholder, url.PathEscape(symbol))
}
