package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"

	"nutricoach"
	"nutricoach/bootstrap"
)

type Params struct {
	UserID uint   `json:"user_id"`
	Date   string `json:"date"`
}

func main() {
	ctx := context.Background()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("SETUP: %s", err)
	}
	if cfg.Feedback.LogPath == "" {
		cfg.Feedback.LogPath = "-"
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("SETUP: Failed to start: %s", err)
	}
	defer app.Close(ctx)

	fn := func(ctx context.Context, params Params) (nutricoach.DailySummary, error) {
		date, err := nutricoach.ParseDate(params.Date)
		if err != nil {
			return nutricoach.DailySummary{}, fmt.Errorf("invalid date %q: %w", params.Date, err)
		}

		s, err := app.Summaries.BuildSummary(ctx, params.UserID, date)
		if err != nil {
			slog.Error("SUMMARY: Failed to build summary", "user_id", params.UserID, "date", params.Date, "error", err)
			return nutricoach.DailySummary{}, err
		}
		return s, nil
	}

	lambda.Start(fn)
}
