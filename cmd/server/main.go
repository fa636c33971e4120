package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nutricoach/api"
	"nutricoach/bootstrap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("SETUP: Failed to load .env", "error", err)
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("SETUP: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("SETUP: Failed to start: %s", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			slog.Error("SETUP: Failed to release resources", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    cfg.App.Address,
		Handler: api.NewRouter(app.Handler(), cfg.App),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP: Listening", "address", cfg.App.Address, "feedback_available", app.Generator.Available())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP: Server stopped", "error", err)
		}
		return
	case <-ctx.Done():
	}

	slog.Info("HTTP: Shutting down", "grace", cfg.App.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP: Graceful shutdown failed", "error", err)
	}
}
