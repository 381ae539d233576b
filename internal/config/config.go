package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/corpus"
	"github.com/danethurber/ponderous/internal/validation"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Analysis AnalysisConfig `toml:"analysis"`
	EDHREC   EDHRECConfig   `toml:"edhrec"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path         string `toml:"path" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=1,lte=32"`
	BusyTimeout  string `toml:"busy_timeout"` // e.g. "5s"
	JournalMode  string `toml:"journal_mode" validate:"oneof=WAL DELETE TRUNCATE MEMORY"`
	AutoMigrate  bool   `toml:"auto_migrate"`
}

// AnalysisConfig contains scoring and discovery defaults.
type AnalysisConfig struct {
	Weights WeightsConfig `toml:"weights"`

	MinCompletion float64 `toml:"min_completion" validate:"gte=0,lte=1"`
	DefaultLimit  int     `toml:"default_limit" validate:"gte=0"`
	Workers       int     `toml:"workers" validate:"gte=0,lte=256"` // 0 = one per CPU
	SynergyTopN   int     `toml:"synergy_top_n" validate:"gte=1"`
	ColorBias     float64 `toml:"color_bias" validate:"gte=0,lt=1"`

	ImpactCategories   []string `toml:"impact_categories" validate:"dive,oneof=signature high_synergy staple basic"`
	ImpactMinInclusion float64  `toml:"impact_min_inclusion" validate:"gte=0,lte=1"`

	MissingStapleThreshold int     `toml:"missing_staple_threshold" validate:"gte=1"`
	MissingStapleLimit     int     `toml:"missing_staple_limit" validate:"gte=0"`
	PowerBaseline          float64 `toml:"power_baseline" validate:"gte=0,lte=1"`
}

// WeightsConfig contains the buildability weight of each card category.
type WeightsConfig struct {
	Signature   float64 `toml:"signature" validate:"gte=0"`
	HighSynergy float64 `toml:"high_synergy" validate:"gte=0"`
	Staple      float64 `toml:"staple" validate:"gte=0"`
	Basic       float64 `toml:"basic" validate:"gte=0"`
}

// EDHRECConfig contains scraping settings.
type EDHRECConfig struct {
	BaseURL          string  `toml:"base_url" validate:"required,url"`
	RateLimit        float64 `toml:"rate_limit" validate:"gt=0"` // requests per second
	Timeout          string  `toml:"timeout"`
	UserAgent        string  `toml:"user_agent" validate:"required"`
	Workers          int     `toml:"workers" validate:"gte=1,lte=16"`
	BreakerFailures  int     `toml:"breaker_failures" validate:"gte=1"`
	BreakerOpenDelay string  `toml:"breaker_open_delay"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `toml:"format" validate:"oneof=console json"`
	Debug  bool   `toml:"debug"` // forces debug level
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dbPath := "ponderous.db"
	if dir, err := configDir(); err == nil {
		dbPath = filepath.Join(dir, "ponderous.db")
	}

	return &Config{
		Database: DatabaseConfig{
			Path:         dbPath,
			MaxOpenConns: 1,
			BusyTimeout:  "5s",
			JournalMode:  "WAL",
			AutoMigrate:  true,
		},
		Analysis: AnalysisConfig{
			Weights: WeightsConfig{
				Signature:   3.0,
				HighSynergy: 2.0,
				Staple:      1.5,
				Basic:       1.0,
			},
			MinCompletion:          0.7,
			DefaultLimit:           20,
			Workers:                0,
			SynergyTopN:            analysis.DefaultSynergyTopN,
			ColorBias:              0.15,
			ImpactCategories:       []string{string(corpus.Signature), string(corpus.HighSynergy)},
			ImpactMinInclusion:     0.6,
			MissingStapleThreshold: 3,
			MissingStapleLimit:     25,
			PowerBaseline:          0.5,
		},
		EDHREC: EDHRECConfig{
			BaseURL:          "https://json.edhrec.com",
			RateLimit:        1.5,
			Timeout:          "30s",
			UserAgent:        "ponderous/1.0 (MTG collection analyzer)",
			Workers:          2,
			BreakerFailures:  5,
			BreakerOpenDelay: "60s",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// configDir returns ~/.ponderous.
func configDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ponderous"), nil
}

// DefaultPath returns ~/.ponderous/config.toml.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path, or at DefaultPath when path is
// empty. A missing file yields the defaults. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		// Decoding over the defaults keeps values the file omits.
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv applies PONDEROUS_DB_PATH, PONDEROUS_LOG_LEVEL, PONDEROUS_DEBUG
// and PONDEROUS_EDHREC_RATE_LIMIT overrides.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PONDEROUS_DB_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("PONDEROUS_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("PONDEROUS_DEBUG"); ok && v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			c.Log.Debug = true
		default:
			c.Log.Debug = false
		}
	}
	if v, ok := lookup("PONDEROUS_EDHREC_RATE_LIMIT"); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PONDEROUS_EDHREC_RATE_LIMIT %q: %w", v, err)
		}
		c.EDHREC.RateLimit = rate
	}
	return nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	durations := []struct{ name, value string }{
		{"database.busy_timeout", c.Database.BusyTimeout},
		{"edhrec.timeout", c.EDHREC.Timeout},
		{"edhrec.breaker_open_delay", c.EDHREC.BreakerOpenDelay},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
	}

	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("invalid analysis.weights: %w", err)
	}

	return nil
}

// Weights returns the configured category weights.
func (c *Config) Weights() analysis.Weights {
	w := c.Analysis.Weights
	return analysis.Weights{
		corpus.Signature:   w.Signature,
		corpus.HighSynergy: w.HighSynergy,
		corpus.Staple:      w.Staple,
		corpus.Basic:       w.Basic,
	}
}

// ImpactThreshold returns the configured high-impact threshold.
func (c *Config) ImpactThreshold() analysis.ImpactThreshold {
	t := analysis.ImpactThreshold{MinInclusionRate: c.Analysis.ImpactMinInclusion}
	for _, name := range c.Analysis.ImpactCategories {
		if cat, err := corpus.ParseCategory(name); err == nil {
			t.Categories = append(t.Categories, cat)
		}
	}
	return t
}

// EngineOptions builds analysis engine options from the configuration.
func (c *Config) EngineOptions() analysis.Options {
	return analysis.Options{
		Weights:     c.Weights(),
		Impact:      c.ImpactThreshold(),
		Workers:     c.Analysis.Workers,
		SynergyTopN: c.Analysis.SynergyTopN,
		ColorBias:   c.Analysis.ColorBias,
	}
}

// AnalyzeOptions builds collection analysis options from the configuration.
func (c *Config) AnalyzeOptions() analysis.AnalyzeOptions {
	return analysis.AnalyzeOptions{
		MissingStapleThreshold: c.Analysis.MissingStapleThreshold,
		MissingStapleLimit:     c.Analysis.MissingStapleLimit,
		PowerBaseline:          c.Analysis.PowerBaseline,
	}
}

// LogLevel returns the effective log level.
func (c *Config) LogLevel() string {
	if c.Log.Debug {
		return "debug"
	}
	return c.Log.Level
}

// GetBusyTimeout returns the SQLite busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Database.BusyTimeout)
}

// GetEDHRECTimeout returns the HTTP timeout as a duration.
func (c *Config) GetEDHRECTimeout() (time.Duration, error) {
	return time.ParseDuration(c.EDHREC.Timeout)
}

// GetBreakerOpenDelay returns how long the EDHREC circuit stays open.
func (c *Config) GetBreakerOpenDelay() (time.Duration, error) {
	return time.ParseDuration(c.EDHREC.BreakerOpenDelay)
}
