package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMClient_GenerateText(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		contains string
	}{
		{
			name:     "surplus",
			prompt:   "Calorie balance: 721.50 kcal.",
			contains: "about 722 kcal over target",
		},
		{
			name:     "deficit",
			prompt:   "Calorie balance: -450.00 kcal.",
			contains: "about 450 kcal under target",
		},
		{
			name:     "on target",
			prompt:   "Calorie balance: 12.30 kcal.",
			contains: "close to your target",
		},
		{
			name:     "no balance in prompt",
			prompt:   "hello",
			contains: "Log a full day",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewLLMClient().GenerateText(context.Background(), tt.prompt)
			require.NoError(t, err)
			assert.Contains(t, text, tt.contains)
		})
	}
}

func TestLLMClient_IsDeterministic(t *testing.T) {
	c := NewLLMClient()
	a, _ := c.GenerateText(context.Background(), "Calorie balance: 100.00 kcal.")
	b, _ := c.GenerateText(context.Background(), "Calorie balance: 100.00 kcal.")
	assert.Equal(t, a, b)
}

func TestLLMClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLLMClient().GenerateText(ctx, "Calorie balance: 100.00 kcal.")
	assert.ErrorIs(t, err, context.Canceled)
}
