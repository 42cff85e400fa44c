// Package main runs the Telegram bot that recognizes digits in photos.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"digitlens-go/domain/history"
	"digitlens-go/domain/recognition"
	"digitlens-go/infrastructure/classifier"
	"digitlens-go/infrastructure/config"
	"digitlens-go/infrastructure/imaging"
	"digitlens-go/infrastructure/logging"
	"digitlens-go/infrastructure/repository"
	"digitlens-go/infrastructure/telegram"
	"digitlens-go/resources"
)

func main() {
	if err := run(); err != nil {
		logging.L().Error("Bot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(resources.DefaultConfig, config.FileName)
	if err != nil {
		return err
	}

	logCfg, err := cfg.Logging(logging.AppName + "-bot")
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closeLog()

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return errors.New("TELEGRAM_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pre, err := imaging.NewPreprocessor(cfg.Preprocessor(), logger)
	if err != nil {
		return err
	}
	model, err := classifier.Open(cfg.Classifier(), logger)
	if err != nil {
		logger.Error("Failed to load model", "path", cfg.Model.Path, "error", err)
	}
	recognizer := recognition.NewService(pre, model)
	defer recognizer.Close()

	repo, closeRepo, err := openHistory(ctx, cfg, os.Getenv("MONGODB_URI"), logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	bot, err := telegram.NewBot(&telegram.Config{
		Token:        token,
		Recognizer:   recognizer,
		Decoder:      pre,
		History:      history.NewService(repo),
		HistoryLimit: cfg.Bot.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	return bot.Run(ctx)
}

// openHistory uses MongoDB when a URI is configured and process memory
// otherwise.
func openHistory(ctx context.Context, cfg *config.Config, envURI string, logger *slog.Logger) (history.Repository, func(), error) {
	if envURI == "" && cfg.MongoDB.URI == "" {
		logger.Info("No MongoDB URI configured, keeping history in memory")
		return repository.NewMemoryHistoryRepository(), func() {}, nil
	}

	db, err := repository.NewMongoDB(ctx, cfg.Mongo(envURI), logger)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewMongoHistoryRepository(db, cfg.MongoDB.Collection, logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = db.Close(context.Background())
		return nil, nil, err
	}
	return repo, func() { _ = db.Close(context.Background()) }, nil
}
