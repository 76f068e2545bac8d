package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"navwalk/internal/app"
	"navwalk/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := telemetry.WrapLogger(log.Default())
	cfg := app.ApplyEnv(app.DefaultConfig(), os.Getenv, logger)
	cfg.Logger = logger
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
