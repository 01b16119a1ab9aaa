package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sortplay/internal/config"
	"sortplay/internal/lessons"
	"sortplay/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.New(), os.Getenv("SORTPLAY_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	zerolog.SetGlobalLevel(cfg.Log.Level)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	catalog, err := lessons.Load(cfg.Lessons.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load lessons")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, server.Options{Config: cfg, Catalog: catalog, Logger: logger}); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
