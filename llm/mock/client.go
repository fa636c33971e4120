// Package mock is an offline text generator for local runs and demos.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

var balancePattern = regexp.MustCompile(`Calorie balance: (-?[0-9.]+) kcal`)

type LLMClient struct{}

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

// GenerateText answers deterministically from the calorie balance found in the
// prompt. It only exists to exercise the feedback pipeline without a model.
func (m *LLMClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "provider", "mock", "prompt_len", len(prompt))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	match := balancePattern.FindStringSubmatch(prompt)
	if match == nil {
		return "Score: 5/10\nLog a full day of meals to get specific advice.", nil
	}

	balance, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return "", fmt.Errorf("mock: bad calorie balance %q: %w", match[1], err)
	}

	switch {
	case balance > 300:
		return fmt.Sprintf("Score: 5/10\nYou ended about %.0f kcal over target.\nTry a lighter dinner and more vegetables tomorrow.", balance), nil
	case balance < -300:
		return fmt.Sprintf("Score: 6/10\nYou ended about %.0f kcal under target.\nAdd a protein-rich snack so recovery does not suffer.", -balance), nil
	default:
		return "Score: 8/10\nIntake is close to your target.\nKeep the protein up and stay consistent!", nil
	}
}
