// Package pipeline runs the divscan data collection stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/history"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
	"github.com/wizzomafizzo/divscan/internal/yahoo"
)

// Stage names, in execution order
const (
	StageSymbols   = "symbols"
	StageDividends = "dividends"
	StageFilter    = "filter"
	StagePrices    = "prices"
)

var (
	// ErrNoSymbols is returned when all_symbols.csv does not exist
	ErrNoSymbols = errors.New("symbol list not found, run the symbols stage first")
	// ErrNoDividendDir is returned when the dividend directory does not exist
	ErrNoDividendDir = errors.New("dividend directory not found, run the dividends stage first")
	// ErrNoDividendSymbols is returned when all_dividend_symbols.txt does not exist
	ErrNoDividendSymbols = errors.New("dividend symbol list not found, run the filter stage first")
	// ErrUnknownStage is returned for stage names Run does not know
	ErrUnknownStage = errors.New("unknown stage")
)

// Stages returns every stage name in execution order
func Stages() []string {
	return []string{StageSymbols, StageDividends, StageFilter, StagePrices}
}

// ScreenerSource lists every US listed stock
type ScreenerSource interface {
	FetchScreener(ctx context.Context) (*nasdaq.ScreenerResponse, error)
}

// DividendSource returns the dividend history of a symbol
type DividendSource interface {
	FetchDividends(ctx context.Context, symbol string) ([]nasdaq.Dividend, error)
}

// PriceSource returns daily price bars of a symbol
type PriceSource interface {
	FetchDaily(ctx context.Context, symbol, period string) ([]yahoo.Bar, error)
}

// Recorder stores stage runs
type Recorder interface {
	Start(ctx context.Context, stage string) (int64, error)
	Finish(ctx context.Context, id int64, res history.Result) error
}

// Result counts the symbols a fetch stage handled
type Result struct {
	Processed int
	Failed    int
	Empty     int
}

// FilterResult counts the dividend files the filter stage handled
type FilterResult struct {
	Kept    int
	Removed int
	Skipped int
}

// Options configures a Pipeline
type Options struct {
	Store           *dataset.Store
	Screener        ScreenerSource
	Dividends       DividendSource
	Prices          PriceSource
	History         Recorder
	Period          string
	MinMarketCap    float64
	DividendWorkers int
	PriceWorkers    int
}

// Pipeline runs stages against a workspace
type Pipeline struct {
	store           *dataset.Store
	screener        ScreenerSource
	dividends       DividendSource
	prices          PriceSource
	history         Recorder
	period          string
	minMarketCap    float64
	dividendWorkers int
	priceWorkers    int
}

// New creates a pipeline. Worker counts below one run a single worker.
func New(opts Options) *Pipeline {
	return &Pipeline{
		store:           opts.Store,
		screener:        opts.Screener,
		dividends:       opts.Dividends,
		prices:          opts.Prices,
		history:         opts.History,
		period:          opts.Period,
		minMarketCap:    opts.MinMarketCap,
		dividendWorkers: max(opts.DividendWorkers, 1),
		priceWorkers:    max(opts.PriceWorkers, 1),
	}
}

// Run executes stages in order, all of them when none are given, and stops
// at the first failing stage
func (p *Pipeline) Run(ctx context.Context, stages ...string) error {
	if len(stages) == 0 {
		stages = Stages()
	}
	for _, stage := range stages {
		if !validStage(stage) {
			return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
		}
	}

	log := logging.Get(ctx)
	for _, stage := range stages {
		log.Info().Str("stage", stage).Msg("stage started")

		id, err := p.startRun(ctx, stage)
		if err != nil {
			return err
		}

		res, err := p.runStage(ctx, stage)
		res.Err = err
		if ferr := p.finishRun(ctx, id, res); ferr != nil {
			log.Error().Err(ferr).Str("stage", stage).Msg("failed to record run result")
		}

		if err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
		log.Info().Str("stage", stage).Int("processed", res.Processed).Int("failed", res.Failed).
			Msg("stage finished")
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage string) (history.Result, error) {
	switch stage {
	case StageSymbols:
		n, err := p.Symbols(ctx)
		return history.Result{Processed: n}, err
	case StageDividends:
		res, err := p.Dividends(ctx)
		return history.Result{Processed: res.Processed, Failed: res.Failed}, err
	case StageFilter:
		res, err := p.Filter(ctx)
		return history.Result{Processed: res.Kept + res.Removed, Failed: res.Skipped}, err
	case StagePrices:
		res, err := p.Prices(ctx)
		return history.Result{Processed: res.Processed, Failed: res.Failed}, err
	default:
		return history.Result{}, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
}

func (p *Pipeline) startRun(ctx context.Context, stage string) (int64, error) {
	if p.history == nil {
		return 0, nil
	}
	id, err := p.history.Start(ctx, stage)
	if err != nil {
		return 0, fmt.Errorf("stage %s: %w", stage, err)
	}
	return id, nil
}

func (p *Pipeline) finishRun(ctx context.Context, id int64, res history.Result) error {
	if p.history == nil {
		return nil
	}
	// record the outcome even when ctx was cancelled mid-stage
	return p.history.Finish(context.WithoutCancel(ctx), id, res)
}

func validStage(stage string) bool {
	for _, s := range Stages() {
		if s == stage {
			return true
		}
	}
	return false
}
