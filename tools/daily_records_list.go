package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	defaultRecordsLimit = 7
	maxRecordsLimit     = 100
)

type DailyRecordsList struct{ records RecordLister }

func NewDailyRecordsList(records RecordLister) *DailyRecordsList {
	return &DailyRecordsList{records: records}
}

func (t *DailyRecordsList) Name() string  { return "daily_records_list" }
func (t *DailyRecordsList) Title() string { return "List Recent Daily Records" }
func (t *DailyRecordsList) Description() string {
	return "Returns a user's most recent daily nutrition and exercise records, newest first."
}

func (t *DailyRecordsList) InputSchema() *jsonschema.Schema {
	minOne := 1.0
	maxLimit := float64(maxRecordsLimit)
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"user_id": {Type: "integer", Minimum: &minOne},
			"limit":   {Type: "integer", Minimum: &minOne, Maximum: &maxLimit},
		},
		Required: []string{"user_id"},
	}
}

func (t *DailyRecordsList) OutputSchema() *jsonschema.Schema {
	minZero := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"records": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"record_date":              {Type: "string"},
						"calories_consumed":        {Type: "integer", Minimum: &minZero},
						"protein_g":                {Type: "number", Minimum: &minZero},
						"fat_g":                    {Type: "number", Minimum: &minZero},
						"carbs_g":                  {Type: "number", Minimum: &minZero},
						"calories_burned_exercise": {Type: "integer", Minimum: &minZero},
						"feedback":                 {Type: "string"},
					},
					Required: []string{"record_date", "calories_consumed", "protein_g", "fat_g", "carbs_g"},
				},
			},
		},
		Required: []string{"records"},
	}
}

func (t *DailyRecordsList) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	userID, err := positiveInt(input, "user_id")
	if err != nil {
		return nil, err
	}

	limit := defaultRecordsLimit
	if _, ok := input["limit"]; ok {
		if limit, err = positiveInt(input, "limit"); err != nil {
			return nil, err
		}
	}
	if limit > maxRecordsLimit {
		limit = maxRecordsLimit
	}

	records, err := t.records.ListRecords(ctx, uint(userID), 0, limit)
	if err != nil {
		return nil, fmt.Errorf("records for user %d: %w", userID, err)
	}

	return toMap(struct {
		Records any `json:"records"`
	}{Records: records})
}
