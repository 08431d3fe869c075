package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Dividends fetches the dividend history of every symbol in all_symbols.csv.
// Failed symbols are counted and keep any file from an earlier run.
func (p *Pipeline) Dividends(ctx context.Context) (Result, error) {
	symbols, err := p.store.ReadSymbolNames()
	if errors.Is(err, fs.ErrNotExist) {
		return Result{}, ErrNoSymbols
	}
	if err != nil {
		return Result{}, err
	}

	if err := p.store.EnsureDir(constants.DividendDir); err != nil {
		return Result{}, err
	}

	var processed, failed, empty atomic.Int64
	err = p.forEach(ctx, symbols, p.dividendWorkers, func(ctx context.Context, symbol string) {
		log := logging.Get(ctx).With().Str("symbol", symbol).Logger()

		dividends, err := p.dividends.FetchDividends(ctx, symbol)
		if err != nil {
			if ctx.Err() == nil {
				failed.Add(1)
				log.Error().Err(err).Msg("failed to fetch dividends")
			}
			return
		}

		if err := p.store.WriteDividends(symbol, dividends); err != nil {
			failed.Add(1)
			log.Error().Err(err).Msg("failed to write dividends")
			return
		}

		processed.Add(1)
		if len(dividends) == 0 {
			empty.Add(1)
		}
		log.Debug().Int("dividends", len(dividends)).Msg("dividends saved")
	})

	res := Result{Processed: int(processed.Load()), Failed: int(failed.Load()), Empty: int(empty.Load())}
	return res, err
}

// forEach calls fn for every symbol on at most workers goroutines. It returns
// ctx's error when cancelled before every symbol was scheduled.
func (p *Pipeline) forEach(ctx context.Context, symbols []string, workers int,
	fn func(ctx context.Context, symbol string),
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, symbol := range symbols {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, symbol)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}
