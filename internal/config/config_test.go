package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
market:
  feed_url: "https://example.com/islands"
  poll_interval: 30m
  timeout: 15s
  island_ids:
    - abcd1234
    - ef567890

watch:
  confidence_threshold: 0.70
  cooldown: 12h
  enabled: true

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

storage:
  max_weeks: 500
  max_runs_per_week: 20
  rotation_interval: 24h
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Market.FeedURL != "https://example.com/islands" {
		t.Errorf("Unexpected feed URL: %s", cfg.Market.FeedURL)
	}

	if cfg.Watch.ConfidenceThreshold != 0.70 {
		t.Errorf("Unexpected threshold: %f", cfg.Watch.ConfidenceThreshold)
	}

	if len(cfg.Market.IslandIDs) != 2 {
		t.Errorf("Expected 2 island IDs, got %d", len(cfg.Market.IslandIDs))
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "missing telegram token when enabled",
			config: &Config{
				Market: MarketConfig{
					FeedURL:      "https://example.com",
					PollInterval: 30 * time.Minute,
					IslandIDs:    []string{"abcd1234"},
				},
				Watch: WatchConfig{
					ConfidenceThreshold: 0.70,
					Cooldown:            12 * time.Hour,
				},
				Telegram: TelegramConfig{
					Enabled: true,
					// Missing BotToken
				},
				Storage: StorageConfig{
					MaxWeeks:       500,
					MaxRunsPerWeek: 20,
					DBPath:         "./data/test.db",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "text",
				},
			},
			wantErr: true,
		},
		{
			name: "invalid threshold",
			config: &Config{
				Market: MarketConfig{
					FeedURL:      "https://example.com",
					PollInterval: 30 * time.Minute,
					IslandIDs:    []string{"abcd1234"},
				},
				Watch: WatchConfig{
					ConfidenceThreshold: 1.5, // Invalid
					Cooldown:            12 * time.Hour,
				},
				Storage: StorageConfig{
					MaxWeeks:       500,
					MaxRunsPerWeek: 20,
					DBPath:         "./data/test.db",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "text",
				},
			},
			wantErr: true,
		},
		{
			name: "missing feed and fixture",
			config: &Config{
				Market: MarketConfig{
					PollInterval: 30 * time.Minute,
					IslandIDs:    []string{"abcd1234"},
				},
				Watch: WatchConfig{
					ConfidenceThreshold: 0.70,
				},
				Storage: StorageConfig{
					MaxWeeks:       500,
					MaxRunsPerWeek: 20,
					DBPath:         "./data/test.db",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "text",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
