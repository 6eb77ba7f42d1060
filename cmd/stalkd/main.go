package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/stalkd/internal/config"
	"github.com/rewired-gh/stalkd/internal/logger"
	"github.com/rewired-gh/stalkd/internal/market"
	"github.com/rewired-gh/stalkd/internal/notify"
	"github.com/rewired-gh/stalkd/internal/storage"
	"github.com/rewired-gh/stalkd/internal/watch"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxWeeks, cfg.Storage.MaxRunsPerWeek, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	marketClient, err := buildMarketClient(cfg.Market)
	if err != nil {
		logger.Fatal("Failed to initialize market client: %v", err)
	}

	var notifier *notify.Client
	if cfg.Telegram.Enabled {
		notifier, err = notify.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, time.Second)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram notifications enabled")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	watcher := watch.New(store, notifier, cfg.Watch.ConfidenceThreshold, cfg.Watch.Cooldown)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	go runRotation(ctx, store, cfg.Storage.RotationInterval)

	logger.Info("Starting watch loop (interval: %v, islands: %v, threshold: %.2f, cooldown: %v)",
		cfg.Market.PollInterval, cfg.Market.IslandIDs, cfg.Watch.ConfidenceThreshold, cfg.Watch.Cooldown)

	if !cfg.Watch.Enabled {
		logger.Info("Watch loop disabled by configuration, exiting")
		return
	}

	watcher.Run(ctx, marketClient, cfg.Market.IslandIDs, cfg.Market.PollInterval)
	logger.Info("Service stopped")
}

// buildMarketClient selects an HTTP feed client when a feed URL is
// configured, falling back to a CSV fixture client for offline runs.
func buildMarketClient(cfg config.MarketConfig) (market.Client, error) {
	if cfg.FeedURL != "" {
		return market.NewHTTPClient(cfg.FeedURL, cfg.Timeout), nil
	}
	return market.NewFixtureClientFromFile(cfg.FixtureCSV)
}

// runRotation trims stored weeks and runs on a fixed interval until ctx is
// cancelled.
func runRotation(ctx context.Context, store *storage.Storage, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.RotateWeeks(); err != nil {
				logger.Warn("Failed to rotate weeks: %v", err)
			}
			if err := store.RotateRuns(); err != nil {
				logger.Warn("Failed to rotate runs: %v", err)
			}
		}
	}
}
