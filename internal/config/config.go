// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"formmap/internal/catalog"
	"formmap/internal/choice"
	"formmap/internal/engine"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FORMMAP"

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds the settings shared by every command.
type Config struct {
	Strict     bool   `mapstructure:"STRICT"`
	Normalize  string `mapstructure:"NORMALIZE"`
	Workers    int    `mapstructure:"WORKERS"`
	MaxIssues  int    `mapstructure:"MAX_ISSUES"`
	Assertions bool   `mapstructure:"ASSERTIONS"`
	CacheSize  int    `mapstructure:"CACHE_SIZE"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"STRICT",
	"NORMALIZE",
	"WORKERS",
	"MAX_ISSUES",
	"ASSERTIONS",
	"CACHE_SIZE",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

// Load reads FORMMAP_* variables. When envFile is set it must exist and is
// loaded first; otherwise a .env file in the working directory is used if
// present. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	// Defaults
	v.SetDefault("STRICT", false)
	v.SetDefault("NORMALIZE", string(choice.ModeExact))
	v.SetDefault("WORKERS", 0)
	v.SetDefault("MAX_ISSUES", engine.DefaultMaxIssues)
	v.SetDefault("ASSERTIONS", true)
	v.SetDefault("CACHE_SIZE", catalog.DefaultSize)
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", FormatConsole)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s_%s: %w", EnvPrefix, k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Normalize = strings.ToLower(strings.TrimSpace(cfg.Normalize))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := choice.ParseMode(c.Normalize); err != nil {
		errs = append(errs, err)
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("cache size must be >= 1, got %d", c.CacheSize))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	if c.LogFormat != FormatJSON && c.LogFormat != FormatConsole {
		errs = append(errs, fmt.Errorf("log format %q (expected json or console)", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Mode returns the normalization mode. Validate must have passed.
func (c *Config) Mode() choice.Mode {
	m, _ := choice.ParseMode(c.Normalize)
	return m
}

// EngineOptions converts the settings into engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithStrict(c.Strict),
		engine.WithNormalization(c.Mode()),
		engine.WithWorkers(c.Workers),
		engine.WithMaxIssues(c.MaxIssues),
		engine.WithAssertions(c.Assertions),
	}
}
