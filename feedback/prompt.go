package feedback

import (
	"fmt"
	"strconv"
	"strings"

	"nutricoach"
	"nutricoach/guidance"
)

// BuildPrompt renders the request sent to the language model for one daily
// summary. The output depends only on its inputs. A blank instructions string
// falls back to guidance.Default.
func BuildPrompt(s nutricoach.DailySummary, instructions string) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = guidance.Default
	}

	user := s.User
	record := s.Record

	var b strings.Builder
	fmt.Fprintf(&b, "This is the health data of a %d-year-old %s user.\n", user.Age, user.Gender)
	fmt.Fprintf(&b, "Height: %s cm, weight: %s kg.\n", num(user.HeightCm), num(user.WeightKg))
	fmt.Fprintf(&b, "Their goal is: %s.\n", user.Goal)
	fmt.Fprintf(&b, "Their basal metabolic rate (BMR) is: %.2f kcal.\n", s.BMR)
	fmt.Fprintf(&b, "The recommended daily intake for them is: %.2f kcal.\n", s.RecommendedDailyCalories)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Diet and exercise log for %s:\n", record.RecordDate)
	fmt.Fprintf(&b, "Calories consumed: %d kcal\n", record.CaloriesConsumed)
	fmt.Fprintf(&b, "Protein: %s g\n", num(record.ProteinG))
	fmt.Fprintf(&b, "Fat: %s g\n", num(record.FatG))
	fmt.Fprintf(&b, "Carbohydrates: %s g\n", num(record.CarbsG))
	fmt.Fprintf(&b, "Extra exercise burned: %d kcal\n", record.CaloriesBurnedExercise)
	fmt.Fprintf(&b, "Calorie balance: %.2f kcal.\n", s.CalorieBalance)
	b.WriteString("(Calorie balance is calories consumed minus the recommended intake plus exercise calories. Positive is a surplus, negative a deficit.)\n")
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n")

	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
