package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Sections are separated by a
// double underscore: DIVSCAN_NASDAQ__MAX_WORKERS sets nasdaq.max_workers.
const EnvPrefix = "DIVSCAN_"

// SymbolPlaceholder is replaced by the ticker in per-symbol URL templates.
const SymbolPlaceholder = "{symbol}"

var periodPattern = regexp.MustCompile(`^(\d+(d|mo|y)|ytd|max)$`)

type Config struct {
	DataDir   string          `yaml:"data_dir,omitempty" koanf:"data_dir"`
	Logging   LoggingConfig   `yaml:"logging" koanf:"logging"`
	Nasdaq    NasdaqConfig    `yaml:"nasdaq" koanf:"nasdaq"`
	Prices    PricesConfig    `yaml:"prices" koanf:"prices"`
	Cache     CacheConfig     `yaml:"cache" koanf:"cache"`
	Schedule  ScheduleConfig  `yaml:"schedule" koanf:"schedule"`
	Dashboard DashboardConfig `yaml:"dashboard" koanf:"dashboard"`
}

type LoggingConfig struct {
	Level string `yaml:"level" koanf:"level"`
}

type NasdaqConfig struct {
	ScreenerURL  string  `yaml:"screener_url" koanf:"screener_url"`
	DividendsURL string  `yaml:"dividends_url" koanf:"dividends_url"`
	UserAgent    string  `yaml:"user_agent" koanf:"user_agent"`
	Timeout      string  `yaml:"timeout" koanf:"timeout"`
	MinMarketCap float64 `yaml:"min_market_cap" koanf:"min_market_cap"`
	MaxWorkers   int     `yaml:"max_workers" koanf:"max_workers"`
	RatePerSec   int     `yaml:"rate_per_sec" koanf:"rate_per_sec"`
	Retries      int     `yaml:"retries" koanf:"retries"`
}

type PricesConfig struct {
	ChartURL   string `yaml:"chart_url" koanf:"chart_url"`
	Period     string `yaml:"period" koanf:"period"`
	MaxWorkers int    `yaml:"max_workers" koanf:"max_workers"`
	RatePerSec int    `yaml:"rate_per_sec" koanf:"rate_per_sec"`
	Adjust     bool   `yaml:"adjust" koanf:"adjust"`
}

type CacheConfig struct {
	TTL     string `yaml:"ttl" koanf:"ttl"`
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
}

type ScheduleConfig struct {
	Cron     string `yaml:"cron" koanf:"cron"`
	Timezone string `yaml:"timezone,omitempty" koanf:"timezone"`
}

type DashboardConfig struct {
	Addr string `yaml:"addr" koanf:"addr"`
}

// Load reads the config file at path from fs over the defaults, then
// applies DIVSCAN_ environment overrides. A missing file is not an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// envKey maps DIVSCAN_NASDAQ__MAX_WORKERS to nasdaq.max_workers
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// YAML renders the config in config file form
func (c *Config) YAML() ([]byte, error) {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Exists reports whether a config file is present at path
func Exists(fs afero.Fs, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	return ok, nil
}

// Save writes the config to fs as YAML
func (c *Config) Save(fs afero.Fs, path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Validate performs comprehensive config validation
func (c *Config) Validate() error {
	if err := c.Nasdaq.Validate(); err != nil {
		return fmt.Errorf("nasdaq: %w", err)
	}
	if err := c.Prices.Validate(); err != nil {
		return fmt.Errorf("prices: %w", err)
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if strings.TrimSpace(c.Dashboard.Addr) == "" {
		return errors.New("dashboard: addr is required")
	}
	return nil
}

// Validate checks the NASDAQ client settings
func (n *NasdaqConfig) Validate() error {
	if err := validateURL("screener_url", n.ScreenerURL); err != nil {
		return err
	}
	if err := validateURL("dividends_url", n.DividendsURL); err != nil {
		return err
	}
	if !strings.Contains(n.DividendsURL, SymbolPlaceholder) {
		return fmt.Errorf("dividends_url must contain %s", SymbolPlaceholder)
	}
	if n.MinMarketCap < 0 {
		return errors.New("min_market_cap must be >= 0")
	}
	if n.MaxWorkers < 1 {
		return errors.New("max_workers must be >= 1")
	}
	if n.RatePerSec < 1 {
		return errors.New("rate_per_sec must be >= 1")
	}
	if n.Retries < 0 {
		return errors.New("retries must be >= 0")
	}
	if _, err := n.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration returns the per-request timeout
func (n *NasdaqConfig) TimeoutDuration() (time.Duration, error) {
	return durationOrDefault("nasdaq.timeout", n.Timeout, defaultTimeout)
}

// Validate checks the price history settings
func (p *PricesConfig) Validate() error {
	if err := validateURL("chart_url", p.ChartURL); err != nil {
		return err
	}
	if !strings.Contains(p.ChartURL, SymbolPlaceholder) {
		return fmt.Errorf("chart_url must contain %s", SymbolPlaceholder)
	}
	if !periodPattern.MatchString(p.Period) {
		return fmt.Errorf("invalid period %q: use forms like 15y, 6mo, 5d, ytd or max", p.Period)
	}
	if p.MaxWorkers < 1 {
		return errors.New("max_workers must be >= 1")
	}
	if p.RatePerSec < 1 {
		return errors.New("rate_per_sec must be >= 1")
	}
	return nil
}

// TTLDuration returns how long cached responses stay fresh
func (c *CacheConfig) TTLDuration() (time.Duration, error) {
	return durationOrDefault("cache.ttl", c.TTL, defaultCacheTTL)
}

// Validate checks the cron expression and timezone
func (s *ScheduleConfig) Validate() error {
	if _, err := cron.ParseStandard(s.Cron); err != nil {
		return fmt.Errorf("invalid cron %q: %w", s.Cron, err)
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the schedule timezone, defaulting to local time
func (s *ScheduleConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(strings.ReplaceAll(raw, SymbolPlaceholder, "X"))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
