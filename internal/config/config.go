// Package config loads stalkd's configuration from a YAML file with
// environment variable overrides, using Viper the same way the rest of the
// ambient stack does.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Market   MarketConfig   `mapstructure:"market"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MarketConfig holds settings for fetching island price observations.
type MarketConfig struct {
	FeedURL      string        `mapstructure:"feed_url"`
	FixtureCSV   string        `mapstructure:"fixture_csv"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	IslandIDs    []string      `mapstructure:"island_ids"`
}

// WatchConfig holds confidence-alert behavior configuration
type WatchConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
	Enabled             bool          `mapstructure:"enabled"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	MaxWeeks         int           `mapstructure:"max_weeks"`
	MaxRunsPerWeek   int           `mapstructure:"max_runs_per_week"`
	RotationInterval time.Duration `mapstructure:"rotation_interval"`
	DBPath           string        `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("STALK")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Market defaults
	v.SetDefault("market.poll_interval", "30m")
	v.SetDefault("market.timeout", "15s")

	// Watch defaults
	v.SetDefault("watch.confidence_threshold", 0.70)
	v.SetDefault("watch.cooldown", "12h")
	v.SetDefault("watch.enabled", true)

	// Storage defaults
	v.SetDefault("storage.max_weeks", 500)
	v.SetDefault("storage.max_runs_per_week", 20)
	v.SetDefault("storage.rotation_interval", "24h")
	v.SetDefault("storage.db_path", "./data/stalkd.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Market config
	if c.Market.FeedURL == "" && c.Market.FixtureCSV == "" {
		return fmt.Errorf("market.feed_url or market.fixture_csv is required")
	}
	if c.Market.PollInterval < 1*time.Minute {
		return fmt.Errorf("market.poll_interval must be at least 1 minute")
	}
	if len(c.Market.IslandIDs) == 0 {
		return fmt.Errorf("market.island_ids must contain at least one island")
	}

	// Validate Watch config
	if c.Watch.ConfidenceThreshold < 0.0 || c.Watch.ConfidenceThreshold > 1.0 {
		return fmt.Errorf("watch.confidence_threshold must be between 0.0 and 1.0")
	}
	if c.Watch.Cooldown < 0 {
		return fmt.Errorf("watch.cooldown must not be negative")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.MaxWeeks < 1 {
		return fmt.Errorf("storage.max_weeks must be at least 1")
	}
	if c.Storage.MaxRunsPerWeek < 1 {
		return fmt.Errorf("storage.max_runs_per_week must be at least 1")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// GetMarketConfig returns the Market configuration
func (c *Config) GetMarketConfig() MarketConfig {
	return c.Market
}

// GetWatchConfig returns the Watch configuration
func (c *Config) GetWatchConfig() WatchConfig {
	return c.Watch
}

// GetTelegramConfig returns the Telegram configuration
func (c *Config) GetTelegramConfig() TelegramConfig {
	return c.Telegram
}

// GetStorageConfig returns the Storage configuration
func (c *Config) GetStorageConfig() StorageConfig {
	return c.Storage
}

// GetLoggingConfig returns the Logging configuration
func (c *Config) GetLoggingConfig() LoggingConfig {
	return c.Logging
}
