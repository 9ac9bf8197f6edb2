package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xaenox/safefit-bot/internal/bot"
	"github.com/xaenox/safefit-bot/internal/responder"
	"github.com/xaenox/safefit-bot/internal/storage"
	"github.com/xaenox/safefit-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_TOKEN is not set")
	}

	store, err := openStorage(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}
	defer store.Close()

	resp := responder.NewGPTResponder(responder.GPTConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.Model,
		MaxTokens:         cfg.OpenAI.MaxTokens,
		Temperature:       cfg.OpenAI.Temperature,
		HistoryTurns:      cfg.OpenAI.HistoryTurns,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Burst:             cfg.OpenAI.Burst,
	}, responder.NewKeywordResponder(), logger)
	if cfg.OpenAI.APIKey == "" {
		logger.Info("OPENAI_API_KEY not set, using keyword replies only")
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.Debug, store, resp, bot.Options{
		EmotionThreshold: cfg.Companion.EmotionThreshold,
		HistoryLimit:     cfg.Companion.HistoryLimit,
		ReminderInterval: cfg.Companion.ReminderInterval,
		UpdatesTimeout:   cfg.Telegram.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the bot
	logger.Info("Bot started")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func openStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	case "sqlite":
		logger.Info("Using SQLite storage", zap.String("path", cfg.SQLitePath))
		return storage.NewSQLiteStorage(cfg.SQLitePath, logger)
	default:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}
