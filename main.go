package main

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	service "github.com/haMahdiyar/analyzer-galxe-refdrop/internal"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/config"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.New("galxe-score", "info", "json").Fatal().Err(err).Msg("failed to load .env")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New("galxe-score", "info", "json").Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New("galxe-score", cfg.LogLevel, cfg.LogFormat)

	app, err := service.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build app")
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("service exited with error")
	}
}
