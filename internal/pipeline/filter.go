package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/logging"
)

// Filter writes all_dividend_symbols.txt from the dividend files holding at
// least one row, then deletes the header-only files.
func (p *Pipeline) Filter(ctx context.Context) (FilterResult, error) {
	log := logging.Get(ctx)

	symbols, err := p.store.ListDividendFiles()
	if errors.Is(err, fs.ErrNotExist) {
		return FilterResult{}, ErrNoDividendDir
	}
	if err != nil {
		return FilterResult{}, err
	}

	sectors, err := p.store.SectorsBySymbol()
	if err != nil {
		log.Warn().Err(err).Msg("sectors unavailable, using " + constants.UnknownSector)
		sectors = map[string]string{}
	}

	var (
		res   FilterResult
		kept  []dataset.DividendSymbol
		empty []string
	)
	for _, symbol := range symbols {
		ok, err := p.store.HasDividendRows(symbol)
		if err != nil {
			res.Skipped++
			log.Error().Err(err).Str("symbol", symbol).Msg("skipping unreadable dividend file")
			continue
		}
		if !ok {
			empty = append(empty, symbol)
			continue
		}

		sector := sectors[symbol]
		if sector == "" {
			sector = constants.UnknownSector
		}
		kept = append(kept, dataset.DividendSymbol{Symbol: symbol, Sector: sector})
	}

	if err := p.store.WriteDividendSymbols(kept); err != nil {
		return res, err
	}
	res.Kept = len(kept)

	for _, symbol := range empty {
		if err := p.store.RemoveDividends(symbol); err != nil {
			res.Skipped++
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to remove empty dividend file")
			continue
		}
		res.Removed++
		log.Debug().Str("symbol", symbol).Msg("removed empty dividend file")
	}

	return res, nil
}
