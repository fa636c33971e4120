package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"nutricoach"
)

type DailySummaryGet struct{ summaries SummaryBuilder }

func NewDailySummaryGet(summaries SummaryBuilder) *DailySummaryGet {
	return &DailySummaryGet{summaries: summaries}
}

func (t *DailySummaryGet) Name() string  { return "daily_summary_get" }
func (t *DailySummaryGet) Title() string { return "Get Daily Summary (with feedback)" }
func (t *DailySummaryGet) Description() string {
	return "Returns BMR, recommended calories, calorie balance and nutrition feedback for one user on one date."
}

func (t *DailySummaryGet) InputSchema() *jsonschema.Schema {
	minID := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"user_id": {Type: "integer", Minimum: &minID},
			"date":    {Type: "string", Format: "date", Description: "YYYY-MM-DD"},
		},
		Required: []string{"user_id", "date"},
	}
}

func (t *DailySummaryGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"date":                       {Type: "string"},
			"user_info":                  {Type: "object"},
			"daily_record":               {Type: "object"},
			"bmr":                        {Type: "number"},
			"recommended_daily_calories": {Type: "number"},
			"calorie_balance":            {Type: "number"},
			"llm_feedback":               {Type: "string"},
		},
		Required: []string{"date", "bmr", "recommended_daily_calories", "calorie_balance", "llm_feedback"},
	}
}

func (t *DailySummaryGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	userID, err := positiveInt(input, "user_id")
	if err != nil {
		return nil, err
	}

	rawDate, _ := input["date"].(string)
	date, err := nutricoach.ParseDate(rawDate)
	if err != nil {
		return nil, err
	}

	summary, err := t.summaries.BuildSummary(ctx, uint(userID), date)
	if err != nil {
		return nil, fmt.Errorf("daily summary for user %d on %s: %w", userID, date, err)
	}
	return toMap(summary)
}
