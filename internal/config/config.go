package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

type OIDCProviderConfig struct {
	Id        string `yaml:"id"`
	Name      string `yaml:"name"`
	ClientID  string `yaml:"client_id"`
	IssuerURL string `yaml:"issuer_url"`
}

type Config struct {
	APIBaseURL     string               `yaml:"api_base_url"`
	ListenAddr     string               `yaml:"listen_addr"`
	DBPath         string               `yaml:"db_path"`
	AuthToken      string               `yaml:"auth_token"`
	AuthEnabled    bool                 `yaml:"auth_enabled"`
	OIDCProviders  []OIDCProviderConfig `yaml:"oidc_providers"`
	Timezone       string               `yaml:"timezone"`
	LookbackMonths int                  `yaml:"lookback_months"`
	SeriesDays     int                  `yaml:"series_days"`
	// Upper bounds on the months and days a single request may ask for.
	MaxLookbackMonths int           `yaml:"max_lookback_months"`
	MaxSeriesDays     int           `yaml:"max_series_days"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	LogLevel          string        `yaml:"log_level"`
	LogJSON           bool          `yaml:"log_json"`
	LogFile           string        `yaml:"log_file"`
}

const (
	DefaultMaxLookbackMonths = 120
	DefaultMaxSeriesDays     = 3660
)

func Default() *Config {
	return &Config{
		APIBaseURL:        "http://localhost:8080",
		ListenAddr:        ":8080",
		DBPath:            "habits.db",
		LookbackMonths:    5,
		SeriesDays:        30,
		MaxLookbackMonths: DefaultMaxLookbackMonths,
		MaxSeriesDays:     DefaultMaxSeriesDays,
		RequestTimeout:    10 * time.Second,
		LogLevel:          "info",
	}
}

// Load reads a YAML config over the defaults. HABITS_CONFIG, when set,
// overrides path. A missing file is an error.
func Load(path string) (*Config, error) {
	if p := os.Getenv("HABITS_CONFIG"); p != "" {
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv is Default with environment overrides, for running without a
// config file.
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getenv("HABITS_API_BASE", c.APIBaseURL)
	c.DBPath = getenv("HABITS_DB_PATH", c.DBPath)
	c.AuthToken = getenv("HABITS_AUTH_TOKEN", c.AuthToken)
	c.Timezone = getenv("HABITS_TIMEZONE", c.Timezone)
}

func (c *Config) Validate() error {
	var errs []error
	if c.LookbackMonths < 0 {
		errs = append(errs, fmt.Errorf("lookback_months must be >= 0, got %d", c.LookbackMonths))
	}
	if c.SeriesDays < 0 {
		errs = append(errs, fmt.Errorf("series_days must be >= 0, got %d", c.SeriesDays))
	}
	if c.MaxLookbackMonths < 0 {
		errs = append(errs, fmt.Errorf("max_lookback_months must be >= 0, got %d", c.MaxLookbackMonths))
	}
	if c.MaxSeriesDays < 0 {
		errs = append(errs, fmt.Errorf("max_series_days must be >= 0, got %d", c.MaxSeriesDays))
	}
	if c.LookbackMonths > c.LookbackLimit() {
		errs = append(errs, fmt.Errorf("lookback_months %d exceeds max_lookback_months %d", c.LookbackMonths, c.LookbackLimit()))
	}
	if c.SeriesDays > c.SeriesLimit() {
		errs = append(errs, fmt.Errorf("series_days %d exceeds max_series_days %d", c.SeriesDays, c.SeriesLimit()))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	for i, p := range c.OIDCProviders {
		if p.Id == "" || p.IssuerURL == "" || p.ClientID == "" {
			errs = append(errs, fmt.Errorf("oidc_providers[%d]: id, issuer_url and client_id are required", i))
		}
	}
	return errors.Join(errs...)
}

// LookbackLimit is MaxLookbackMonths, or the default when unset.
func (c *Config) LookbackLimit() int {
	if c.MaxLookbackMonths <= 0 {
		return DefaultMaxLookbackMonths
	}
	return c.MaxLookbackMonths
}

// SeriesLimit is MaxSeriesDays, or the default when unset.
func (c *Config) SeriesLimit() int {
	if c.MaxSeriesDays <= 0 {
		return DefaultMaxSeriesDays
	}
	return c.MaxSeriesDays
}

// Location resolves Timezone. Empty or "Local" is the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
