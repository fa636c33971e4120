// Package energy derives basal metabolic rate, a daily calorie target and the
// day's calorie balance from a user profile and a daily record.
package energy

import (
	"math"

	"nutricoach"
)

// DefaultActivityLevel is the sedentary TDEE multiplier. Activity level is not
// user configurable.
const DefaultActivityLevel = 1.2

const (
	loseFatAdjustment    = -500.0
	gainMuscleAdjustment = 300.0
)

// sexConstant is the Mifflin-St Jeor s term. "other" uses the midpoint of the
// male and female constants.
func sexConstant(g nutricoach.Gender) float64 {
	switch g {
	case nutricoach.GenderMale:
		return 5
	case nutricoach.GenderFemale:
		return -161
	default:
		return (5 + -161) / 2.0
	}
}

// BMR computes the basal metabolic rate with the Mifflin-St Jeor formula:
// 10*weight + 6.25*height - 5*age + s, rounded to 2 decimals.
func BMR(weightKg, heightCm float64, age int, gender nutricoach.Gender) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age) + sexConstant(gender)
	return round2(bmr)
}

// RecommendedCalories scales bmr by activityLevel and adjusts for the goal.
// Unknown goals are treated as maintain.
func RecommendedCalories(bmr float64, goal nutricoach.Goal, activityLevel float64) float64 {
	tdee := bmr * activityLevel

	switch goal {
	case nutricoach.GoalLoseFat:
		return round2(tdee + loseFatAdjustment)
	case nutricoach.GoalGainMuscle:
		return round2(tdee + gainMuscleAdjustment)
	default:
		return round2(tdee)
	}
}

// CalorieBalance is consumed - recommended + burned. Positive means surplus.
// Burned calories are added back after netting against the target; keep it that way.
func CalorieBalance(consumed int, recommended float64, burned int) float64 {
	return float64(consumed) - recommended + float64(burned)
}

// Derived groups the values computed for one summary.
type Derived struct {
	BMR                 float64
	RecommendedCalories float64
	CalorieBalance      float64
}

// Derive runs the full pipeline for a user's record at DefaultActivityLevel.
func Derive(user nutricoach.UserProfile, record nutricoach.DailyRecord) Derived {
	bmr := BMR(user.WeightKg, user.HeightCm, user.Age, user.Gender)
	recommended := RecommendedCalories(bmr, user.Goal, DefaultActivityLevel)
	return Derived{
		BMR:                 bmr,
		RecommendedCalories: recommended,
		CalorieBalance:      CalorieBalance(record.CaloriesConsumed, recommended, record.CaloriesBurnedExercise),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
