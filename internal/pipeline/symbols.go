package pipeline

import (
	"context"
	"fmt"

	"github.com/wizzomafizzo/divscan/internal/logging"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
)

// Symbols downloads the screener and writes every stock at or above the
// minimum market cap. Nothing is written when no stock qualifies.
func (p *Pipeline) Symbols(ctx context.Context) (int, error) {
	log := logging.Get(ctx)

	resp, err := p.screener.FetchScreener(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch screener: %w", err)
	}

	symbols := nasdaq.ExtractSymbols(resp, p.minMarketCap)
	log.Debug().Int("rows", len(resp.Rows())).Int("kept", len(symbols)).
		Float64("min_market_cap", p.minMarketCap).Msg("screener filtered")

	if len(symbols) == 0 {
		log.Warn().Msg("no stocks matched the market cap filter")
		return 0, nil
	}

	if err := p.store.WriteSymbols(symbols); err != nil {
		return 0, err
	}
	return len(symbols), nil
}
