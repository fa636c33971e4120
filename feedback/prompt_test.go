package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nutricoach/guidance"
)

func TestBuildPrompt(t *testing.T) {
	summary := sampleSummary(sampleRecord())

	tests := []struct {
		name         string
		instructions string
		contains     []string
		excludes     []string
	}{
		{
			name:         "embeds profile, record and metrics",
			instructions: "Be brief.",
			contains: []string{
				"30-year-old male user",
				"Height: 175 cm, weight: 70 kg.",
				"Their goal is: lose_fat.",
				"1648.75 kcal",
				"1478.50 kcal",
				"Diet and exercise log for 2024-05-01:",
				"Calories consumed: 2200 kcal",
				"Protein: 120 g",
				"Fat: 70.5 g",
				"Carbohydrates: 250 g",
				"Extra exercise burned: 300 kcal",
				"Calorie balance: 1021.50 kcal.",
				"Be brief.",
			},
			excludes: []string{guidance.Default},
		},
		{
			name:         "blank instructions fall back to default guidance",
			instructions: "   ",
			contains:     []string{guidance.Default},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildPrompt(summary, tt.instructions)
			for _, s := range tt.contains {
				assert.Contains(t, prompt, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, prompt, s)
			}
		})
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	summary := sampleSummary(sampleRecord())
	assert.Equal(t, BuildPrompt(summary, ""), BuildPrompt(summary, ""))
}
