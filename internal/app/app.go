// Package app wires configuration, storage and clients for divscan commands.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/divscan/internal/cache"
	"github.com/wizzomafizzo/divscan/internal/config"
	"github.com/wizzomafizzo/divscan/internal/dashboard"
	"github.com/wizzomafizzo/divscan/internal/database"
	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/fetch"
	"github.com/wizzomafizzo/divscan/internal/history"
	"github.com/wizzomafizzo/divscan/internal/logging"
	"github.com/wizzomafizzo/divscan/internal/nasdaq"
	"github.com/wizzomafizzo/divscan/internal/pipeline"
	"github.com/wizzomafizzo/divscan/internal/project"
	"github.com/wizzomafizzo/divscan/internal/storage"
	"github.com/wizzomafizzo/divscan/internal/yahoo"
)

// Workspace is a loaded configuration and its data directory. It needs no database.
type Workspace struct {
	Config      *config.Config
	fs          afero.Fs
	Root        string
	ConfigPath  string
	DataDir     string
	ConfigFound bool // false when the defaults are in use
}

// LoadWorkspace finds the workspace and loads its configuration
func LoadWorkspace(opts Options) (*Workspace, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	root := opts.WorkDir
	if root == "" {
		var err error
		if root, err = project.FindRoot(); err != nil {
			return nil, fmt.Errorf("failed to find workspace: %w", err)
		}
	}

	configPath := project.ResolvePath(root, opts.ConfigPath)
	found, err := config.Exists(fs, configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(fs, configPath)
	if err != nil {
		return nil, err
	}

	return &Workspace{
		Config:      cfg,
		fs:          fs,
		Root:        root,
		ConfigPath:  configPath,
		DataDir:     project.ResolvePath(filepath.Dir(configPath), cfg.DataDir),
		ConfigFound: found,
	}, nil
}

// Fs returns the workspace filesystem
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Store returns the data file store
func (w *Workspace) Store() *dataset.Store {
	return dataset.New(w.fs, w.DataDir)
}

// Logger attaches the configured logger to ctx
func (w *Workspace) Logger(ctx context.Context, opts Options) (context.Context, error) {
	ctx, err := logging.New(ctx, w.fs, logging.Config{
		Writer:    opts.LogWriter,
		Console:   opts.Console,
		Workspace: w.DataDir,
		Level:     logging.ParseLevel(w.Config.Logging.Level),
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return ctx, nil
}

// getter builds a fetch client with the shared request settings and the given rate
func (w *Workspace) getter(c fetch.Cache, ratePerSec int) (*fetch.Client, error) {
	n := w.Config.Nasdaq
	timeout, err := n.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	ttl, err := w.Config.Cache.TTLDuration()
	if err != nil {
		return nil, err
	}

	return fetch.New(fetch.Options{
		Cache:      c,
		UserAgent:  n.UserAgent,
		Timeout:    timeout,
		CacheTTL:   ttl,
		RatePerSec: ratePerSec,
		Retries:    n.Retries,
	}), nil
}

// NasdaqClient builds a NASDAQ API client; c may be nil to disable caching
func (w *Workspace) NasdaqClient(c fetch.Cache) (*nasdaq.Client, error) {
	getter, err := w.getter(c, w.Config.Nasdaq.RatePerSec)
	if err != nil {
		return nil, err
	}
	return nasdaq.NewFromConfig(getter, w.Config.Nasdaq), nil
}

// YahooClient builds a chart API client with its own rate limit
func (w *Workspace) YahooClient(c fetch.Cache) (*yahoo.Client, error) {
	getter, err := w.getter(c, w.Config.Prices.RatePerSec)
	if err != nil {
		return nil, err
	}
	return yahoo.New(getter, w.Config.Prices.ChartURL, w.Config.Prices.Adjust), nil
}

// Dashboard builds the dashboard server; an empty addr uses the configured one
func (w *Workspace) Dashboard(addr string, watch bool) *dashboard.Server {
	if addr == "" {
		addr = w.Config.Dashboard.Addr
	}
	return dashboard.NewServer(dashboard.Config{Fs: w.fs, Dir: w.DataDir, Addr: addr, Watch: watch})
}

// App is a workspace with its database open
type App struct {
	*Workspace
	db      *database.Manager
	cache   *cache.Cache
	history *history.Store
}

// New loads the workspace, attaches the logger to ctx and opens the database
func New(ctx context.Context, opts Options) (context.Context, *App, error) {
	ws, err := LoadWorkspace(opts)
	if err != nil {
		return ctx, nil, err
	}

	ctx, err = ws.Logger(ctx, opts)
	if err != nil {
		return ctx, nil, err
	}

	dsn := opts.DatabaseDSN
	if dsn == "" {
		if dsn, err = storage.New(ws.fs).GetDatabasePath(); err != nil {
			return ctx, nil, err
		}
	}

	db, err := database.NewManager(ctx, dsn)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to open database: %w", err)
	}

	logging.Get(ctx).Debug().Str("config", ws.ConfigPath).Str("data_dir", ws.DataDir).Msg("workspace loaded")

	return ctx, &App{
		Workspace: ws,
		db:        db,
		cache:     cache.New(db.DB()),
		history:   history.New(db.DB()),
	}, nil
}

// Close closes the database
func (a *App) Close() error {
	return a.db.Close()
}

// History returns the run history store
func (a *App) History() *history.Store {
	return a.history
}

// Cache returns the response cache
func (a *App) Cache() *cache.Cache {
	return a.cache
}

// responseCache returns the cache when enabled in the configuration
func (a *App) responseCache() fetch.Cache {
	if !a.Config.Cache.Enabled {
		return nil
	}
	return a.cache
}

// Pipeline builds a pipeline that records its runs in the database
func (a *App) Pipeline() (*pipeline.Pipeline, error) {
	nq, err := a.NasdaqClient(a.responseCache())
	if err != nil {
		return nil, err
	}
	yh, err := a.YahooClient(a.responseCache())
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Options{
		Store:           a.Store(),
		Screener:        nq,
		Dividends:       nq,
		Prices:          yh,
		History:         a.history,
		Period:          a.Config.Prices.Period,
		MinMarketCap:    a.Config.Nasdaq.MinMarketCap,
		DividendWorkers: a.Config.Nasdaq.MaxWorkers,
		PriceWorkers:    a.Config.Prices.MaxWorkers,
	}), nil
}

// PurgeCache removes expired responses; failures are only logged
func (a *App) PurgeCache(ctx context.Context) {
	n, err := a.cache.Purge(ctx)
	if err != nil {
		logging.Get(ctx).Warn().Err(err).Msg("failed to purge cache")
		return
	}
	if n > 0 {
		logging.Get(ctx).Debug().Int64("removed", n).Msg("expired cache entries purged")
	}
}
