package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"nutricoach"
	"nutricoach/bootstrap"
)

func main() {
	userID := flag.Uint("user", 0, "user id")
	dateArg := flag.String("date", time.Now().Format(time.DateOnly), "record date (YYYY-MM-DD)")
	dump := flag.Bool("dump", false, "spew the summary instead of printing JSON")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(context.Background(), uint(*userID), *dateArg, *dump); err != nil {
		log.Fatalf("SUMMARY: %s", err)
	}
}

func run(ctx context.Context, userID uint, dateArg string, dump bool) error {
	date, err := nutricoach.ParseDate(dateArg)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer app.Close(ctx)

	s, err := app.Summaries.BuildSummary(ctx, userID, date)
	if err != nil {
		return err
	}

	if dump {
		nutricoach.Dump(os.Stdout, s)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
