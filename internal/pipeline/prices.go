package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"github.com/wizzomafizzo/divscan/internal/yahoo"
)

// Prices downloads the daily price history of every dividend symbol.
// Symbols without data are logged and counted as empty.
func (p *Pipeline) Prices(ctx context.Context) (Result, error) {
	entries, err := p.store.ReadDividendSymbols()
	if errors.Is(err, fs.ErrNotExist) {
		return Result{}, ErrNoDividendSymbols
	}
	if err != nil {
		return Result{}, err
	}

	if err := p.store.EnsureDir(constants.PriceDir); err != nil {
		return Result{}, err
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}

	var processed, failed, empty atomic.Int64
	err = p.forEach(ctx, symbols, p.priceWorkers, func(ctx context.Context, symbol string) {
		log := logging.Get(ctx).With().Str("symbol", symbol).Logger()

		bars, err := p.prices.FetchDaily(ctx, symbol, p.period)
		if errors.Is(err, yahoo.ErrNoData) || (err == nil && len(bars) == 0) {
			empty.Add(1)
			log.Warn().Msg("no price data")
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				failed.Add(1)
				log.Error().Err(err).Msg("failed to fetch prices")
			}
			return
		}

		if err := p.store.WritePrices(symbol, bars); err != nil {
			failed.Add(1)
			log.Error().Err(err).Msg("failed to write prices")
			return
		}
		processed.Add(1)
		log.Debug().Int("bars", len(bars)).Msg("prices saved")
	})

	res := Result{Processed: int(processed.Load()), Failed: int(failed.Load()), Empty: int(empty.Load())}
	return res, err
}
