package main

import (
	"context"
	"log"

	"ipshield/internal/app"
	"ipshield/internal/config"
	"ipshield/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to init: %v", err)
	}
	defer a.Close()

	if err := a.InitRateLimiter(); err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}

	logger.Info("listening", "addr", cfg.HTTPAddr)
	if err := a.Server().Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
