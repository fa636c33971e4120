// Package tools exposes nutrition lookups as agent tools with JSON schemas.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// toMap marshals v to keep outputs uniform across tools.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// positiveInt reads a whole number >= 1 from JSON input.
func positiveInt(input map[string]any, key string) (int, error) {
	raw, ok := input[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, ok := raw.(float64)
	if !ok {
		if i, isInt := raw.(int); isInt {
			f = float64(i)
		} else {
			return 0, fmt.Errorf("%s must be a number, got %T", key, raw)
		}
	}
	if f < 1 || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return int(f), nil
}
