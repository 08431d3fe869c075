package config

import "time"

const (
	defaultTimeout  = 30 * time.Second
	defaultCacheTTL = 12 * time.Hour

	// DefaultUserAgent is sent with every request; the NASDAQ API rejects the Go default.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"
)

// DefaultConfig returns the default divscan configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Nasdaq: NasdaqConfig{
			ScreenerURL:  "https://api.nasdaq.com/api/screener/stocks?tableonly=true&limit=25&offset=0&download=true",
			DividendsURL: "https://api.nasdaq.com/api/quote/{symbol}/dividends?assetclass=stocks",
			UserAgent:    DefaultUserAgent,
			Timeout:      defaultTimeout.String(),
			MinMarketCap: 1_000_000_000,
			MaxWorkers:   5,
			RatePerSec:   5,
			Retries:      2,
		},
		Prices: PricesConfig{
			ChartURL:   "https://query1.finance.yahoo.com/v8/finance/chart/{symbol}",
			Period:     "15y",
			MaxWorkers: 1,
			RatePerSec: 2,
			Adjust:     true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     defaultCacheTTL.String(),
		},
		Schedule: ScheduleConfig{
			Cron: "0 6 * * 1-5",
		},
		Dashboard: DashboardConfig{
			Addr: "127.0.0.1:8050",
		},
	}
}

// defaultValues flattens DefaultConfig into koanf keys
func defaultValues() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"data_dir":              d.DataDir,
		"logging.level":         d.Logging.Level,
		"nasdaq.screener_url":   d.Nasdaq.ScreenerURL,
		"nasdaq.dividends_url":  d.Nasdaq.DividendsURL,
		"nasdaq.user_agent":     d.Nasdaq.UserAgent,
		"nasdaq.timeout":        d.Nasdaq.Timeout,
		"nasdaq.min_market_cap": d.Nasdaq.MinMarketCap,
		"nasdaq.max_workers":    d.Nasdaq.MaxWorkers,
		"nasdaq.rate_per_sec":   d.Nasdaq.RatePerSec,
		"nasdaq.retries":        d.Nasdaq.Retries,
		"prices.chart_url":      d.Prices.ChartURL,
		"prices.period":         d.Prices.Period,
		"prices.max_workers":    d.Prices.MaxWorkers,
		"prices.rate_per_sec":   d.Prices.RatePerSec,
		"prices.adjust":         d.Prices.Adjust,
		"cache.enabled":         d.Cache.Enabled,
		"cache.ttl":             d.Cache.TTL,
		"schedule.cron":         d.Schedule.Cron,
		"schedule.timezone":     d.Schedule.Timezone,
		"dashboard.addr":        d.Dashboard.Addr,
	}
}
