// Package guidance provides the instructional text appended to every feedback
// prompt. Operators can replace it with a file or an S3 object without a redeploy.
package guidance

import (
	"context"
	"log/slog"
	"strings"
)

// Default asks for a 1-10 score, macro commentary, goal feedback and 1-2
// suggestions, in an encouraging tone and about 150 characters.
const Default = `Based on the data above, score today's diet and exercise from 1 to 10 and give concrete nutrition advice and encouragement.
Focus on:
1. Does the calorie intake fit the goal?
2. Is the split between protein, fat and carbohydrates balanced? (You may suggest a rough ratio, for example protein at 20-30% of total calories.)
3. How did today go with respect to their goal?
4. Give 1-2 concrete improvements or words of encouragement.

Reply in a friendly, encouraging tone and keep the reply within 150 characters.`

// Source loads guidance text.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Static is an in-memory Source.
type Static struct {
	data []byte
	err  error
}

func NewStatic(text string) *Static {
	return &Static{data: []byte(text)}
}

// NewStaticWithError returns a Source whose Load always fails with err.
func NewStaticWithError(err error) *Static {
	return &Static{err: err}
}

func (s *Static) Load(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

// Resolve loads the guidance from src. A nil source, a load failure or a blank
// document yields Default; failures are logged rather than returned.
func Resolve(ctx context.Context, src Source) string {
	if src == nil {
		return Default
	}

	data, err := src.Load(ctx)
	if err != nil {
		slog.Warn("GUIDANCE: Failed to load guidance, using built-in text", "error", err)
		return Default
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		slog.Warn("GUIDANCE: Guidance document is empty, using built-in text")
		return Default
	}

	slog.Info("GUIDANCE: Loaded custom guidance", "text_len", len(text))
	return text
}
