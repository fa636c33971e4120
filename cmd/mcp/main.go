package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nutricoach/bootstrap"
	"nutricoach/tools"
)

func main() {
	// stdout carries the protocol.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	_ = godotenv.Load()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("SETUP: %s", err)
	}
	if cfg.Feedback.LogPath == "-" {
		cfg.Feedback.LogPath = ""
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("SETUP: Failed to start: %s", err)
	}
	defer app.Close(context.Background())

	if err := tools.Serve(ctx, app.Tools(), bootstrap.Version); err != nil && ctx.Err() == nil {
		slog.Error("TOOLS: MCP server stopped", "error", err)
	}
}
